// Package harness runs scripted interpreter scenarios and compares their
// transcripts against golden files.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: move_right
//	description: "moveto drives the closest anchor onto the target"
//	stage: { x: 0, y: 0, width: 10, height: 10 }
//	windows: [Notepad, Calculator]
//	steps:
//	  - command: show
//	  - command: moveto 40 5 5 left
//	  - command: get missing
//	    expect: { code: VarDoesNotExist }
//	  - command: w = getwindow notepad
//	    expect: { code: Success, kind: pointer, value: "65536" }
//	final:
//	  anchor: left
//	  x: 40
//	  y: 5
//
// Each step is dispatched in order against a fresh variable store, window
// registry and virtual actor. When a step enqueues a move, the harness
// waits for that move before the next step so transcripts are
// deterministic. After the last step the scheduler is drained and the
// final clause checks where the named anchor ended up.
//
// # Deterministic Testing
//
// Job ids come from testutil.SequentialIDs and job timestamps from
// testutil.FakeTime; moves use a 1ms tick unless WithTick says otherwise.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/move_right.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
