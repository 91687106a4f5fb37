// Package harness runs scripted kin sessions end to end.
//
// A scenario seeds an in-memory service (testutil.FakeService), runs a
// sequence of kin command lines against it through the real command tree,
// and then checks the outcome. Every step gets a fresh command, like a new
// process, while the credential store persists between steps.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	seed:
//	  users:
//	    - { username: alice, email: alice@example.com, password: pw }
//	    - { username: bob, email: bob@example.com, password: pw }
//	  posts:
//	    - { author: bob, content: "hello" }
//	  requests:
//	    - { from: bob, to: alice }
//	  friendships:
//	    - { from: alice, to: carol }
//	steps:
//	  - run: [login, alice, --password, pw]
//	  - run: [friends, accept, "7"]
//	  - run: [posts, delete, "4"]
//	    exit: 2
//	  - run: [search, --interactive]
//	    stdin: "al\nali\n"
//	assertions:
//	  - type: output_contains
//	    step: 0
//	    text: "Logged in as alice"
//	  - type: friends
//	    users: [alice, bob]
//
// Seed posts, requests and friendships are applied in file order after all
// users, and draw from the same id sequence as the service itself.
//
// # Assertion Types
//
//   - output_contains: the output of step contains text
//   - friends: the two users are friends on the service
//   - not_friends: the two users are not friends
//   - pending_requests: the service holds exactly count unanswered requests
//   - searches: the service received exactly queries, in order
//
// # Deterministic Testing
//
// Steps render timestamps in UTC against a fixed clock (DefaultNow), and
// request ids come from testutil.FixedRequestIDs, so a scenario's
// transcript is stable enough for golden comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/accept.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
