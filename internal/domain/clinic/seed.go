package clinic

import "context"

// DemoPatients and DemoPhysicians are the records loaded by Seed.
var (
	DemoPatients = []Patient{
		{Name: "Ana Souza", NationalID: "111.111.111-11", InsurancePlan: "Saúde+"},
		{Name: "Bruno Lima", NationalID: "222.222.222-22"},
	}
	DemoPhysicians = []Physician{
		{Name: "Dra. Carla", NationalID: "333.333.333-33", License: "CRM-SP-12345", Specialty: "Clínico"},
		{Name: "Dr. Diego", NationalID: "444.444.444-44", License: "CRM-SP-67890", Specialty: "Cardio"},
	}
)

// Seed registers the demo records, skipping any that already exist or fail.
// It returns how many were added.
func Seed(ctx context.Context, svc *Service) int {
	added := 0
	for _, p := range DemoPatients {
		if err := svc.RegisterPatient(ctx, p); err != nil {
			svc.logger.Debug().Err(err).Str("patient_id", p.NationalID).Msg("seed patient skipped")
			continue
		}
		added++
	}
	for _, ph := range DemoPhysicians {
		if err := svc.RegisterPhysician(ctx, ph); err != nil {
			svc.logger.Debug().Err(err).Str("license", ph.License).Msg("seed physician skipped")
			continue
		}
		added++
	}
	return added
}
