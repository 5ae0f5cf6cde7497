// Package bundle reads model versions from YAML files and creates them in
// the store.
//
// A bundle lists the metrics, coefficients, rules, states, restructuring
// templates and template bindings of one model version. References between
// items are by name; Apply resolves them to the ids the store assigns.
//
// Example bundle:
//
//	model_version:
//	  name: example
//	  activate: true
//	coefficients:
//	  - {name: revenue, mode: scalar, weight: 0.01}
//	rules:
//	  - name: HighCost
//	    conditions: ["cost > 220"]
//	    impacts: [{mode: scalar, value: 12}]
//	states:
//	  - {name: NORMAL, rank: 0}
//	  - {name: CRITICAL_ZONE, rank: 1, is_critical: true, thresholds: [{value: 100}]}
//
// The deterministic baseline model is embedded and returned by Baseline.
package bundle
