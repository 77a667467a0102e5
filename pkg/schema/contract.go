package schema

import "sort"

// Contract maps field keys to the type a completion handler expects.
type Contract map[string]Type

// ContractFor derives a contract from a schema: required elements must be
// present, optional ones may be absent. Elements with valid options accept
// only those options. Every value is expected to be a string.
func ContractFor(s Schema) Contract {
	c := make(Contract, len(s))
	for key, el := range s {
		var t Type = String()
		if len(el.ValidOptions) > 0 {
			t = OneOf(el.ValidOptions...)
		}
		if !el.Required {
			t = Optional(t)
		}
		c[key] = t
	}
	return c
}

// Validate checks data against every field of the contract and returns an
// *AggregateError listing all failures.
func Validate(contract Contract, data map[string]any) error {
	if len(contract) == 0 {
		return nil
	}

	keys := make([]string, 0, len(contract))
	for k := range contract {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return ValidateFields(contract, data, keys...)
}

// ValidateFields validates only the named fields.
func ValidateFields(contract Contract, data map[string]any, fields ...string) error {
	var errs []error

	for _, key := range fields {
		typ, defined := contract[key]
		if !defined {
			errs = append(errs, &ValidationError{Key: key, Reason: "not defined in contract"})
			continue
		}

		value, present := data[key]
		if !present {
			if _, optional := typ.(optionalType); optional {
				continue
			}
			errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			continue
		}

		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
