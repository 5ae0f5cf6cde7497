// Riskengine is a deterministic transformation risk scoring service.
//
// It evaluates tenant-configured rules, coefficients and state thresholds
// against numeric inputs, classifies the result into a risk state, selects
// restructuring directives, and keeps a replayable audit trail of every run.
//
// Usage:
//
//	# Apply the schema and seed the baseline model for a tenant
//	riskengine migrate
//	riskengine seed --tenant acme
//
//	# Start the HTTP API
//	riskengine serve --config /etc/riskengine/config.yaml
//
//	# One-off run
//	riskengine run --tenant acme --set revenue=850 --set cost=700
//
//	# Re-execute an audited run and compare it with the stored result
//	riskengine replay --tenant acme 3f1c...
package main

import "os"

func main() {
	os.Exit(Execute())
}
