// Package schema describes the fields a flow currently offers to a client.
//
// A Schema maps field keys to Elements: a resolved prompt, a render hint
// (a primitive such as "string" or a resource type such as "IamRole"), an
// optional default and a relative order. Generate projects a question
// manifest onto the current state; Diff compares two schemas so transports
// can stream what changed.
//
// The package also carries a small type system used by completion handlers
// to check untyped state before acting on it:
//
//	contract := schema.Contract{
//	    "name":   schema.String(),
//	    "region": schema.OneOf("us-east-1", "eu-west-1"),
//	    "role":   schema.Optional(schema.Reference("IamRole", "arn:aws:iam::")),
//	}
//
//	if err := schema.Validate(contract, state); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // ...
//	    }
//	}
package schema
