// Package harness runs lookup conformance scenarios against SQLite.
//
// A scenario loads a schema, inserts fixture rows into a fresh in-memory
// store, then builds one query per case from filter, exclude and order
// steps and checks what it returns.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema: ../blog            # CUE package directory, or inline entities:
//	fixtures:
//	  - entity: Blog
//	    rows:
//	      - { id: 1, name: blog1 }
//	cases:
//	  - name: recent_entries
//	    entity: Entry
//	    steps:
//	      - exclude: { pub_date__year: 2010 }
//	      - order: [-blog__name, id]
//	    expect:
//	      ids: [6]
//	  - name: typo
//	    entity: Blog
//	    steps:
//	      - filter: { name__bogus: x }
//	    expect:
//	      error: UNKNOWN_OPERATOR
//
// # Expectations
//
//   - ids: the primary keys of the returned rows, in order
//   - count: the number of returned rows
//   - error: the resolution error code the query must fail with
//
// # Golden Snapshots
//
// RunWithGolden serializes every case's SQL, parameters and ids as
// canonical JSON and compares it with testdata/golden/{name}.golden.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/blog.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
