// Package harness runs render scenarios: a template, an entity, a dialect
// and bindings, together with the SQL, parameters or error the render must
// produce.
//
// # Scenario Format
//
//	name: users_by_age
//	description: "age range predicate on postgres"
//	dialect: postgres
//	entities: ../entities          # relative to the scenario file
//	entity: User
//	template: "SELECT {{columns}} FROM {{table}} {{where --expr filter}}"
//	bindings:
//	  filter:
//	    and:
//	      - {op: ">=", member: age, value: 25}
//	      - {op: "<=", member: age, value: 34}
//	check: true                    # also run the offline SQL checker
//	expect:
//	  sql: 'SELECT "id", "age" FROM "users" WHERE ("age" >= $age_1 AND "age" <= $age_2)'
//	  params: {age_1: 25, age_2: 34}
//
// A failing render is matched with expect.error, which holds either an
// error code (E205) or a fragment of the message.
//
// # Golden Snapshots
//
// RunWithGolden writes the render as canonical JSON ({sql, params} or
// {code, error}) and compares it with testdata/golden/<name>.golden.
// Regenerate with -update.
package harness
