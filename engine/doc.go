// Package engine plans, optimizes and executes statements.
//
// A statement flows through three stages. The planner maps it onto a
// tree of plan nodes: base scans wrapped by joins, aggregation, sort,
// projection and limit, in that order. The optimizer then rewrites the
// tree with four semantics-preserving passes: predicate pushdown, join
// reordering, access-path selection and projection merging. Finally
// Execute walks the tree depth-first against a Storage implementation.
//
// # Usage
//
//	planner := engine.NewPlanner(schema)
//	plan, err := planner.Plan(stmt)
//	if err != nil {
//	    return err
//	}
//	plan = engine.NewOptimizer(schema, stats).Optimize(plan)
//
//	result, err := plan.Execute(engine.NewExecutionContext(store))
//	if err != nil {
//	    return err
//	}
//	for {
//	    row, ok := result.Next()
//	    if !ok {
//	        break
//	    }
//	    // ...
//	}
//
// Execution is eager: each node drains its children before returning,
// and results are fully materialized. Query failures are terminal and
// leave storage untouched.
package engine
