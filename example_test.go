package formwork_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/pkg/dsl"
	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/registry"
)

// ExampleEngine demonstrates a single-field flow completed by an inline handler.
func ExampleEngine() {
	reg := registry.NewRegistry()
	err := reg.Register(registry.Entry{
		Feature: registry.Feature{ID: "create-note", Name: "Create note", Type: registry.FeatureCreate},
		Create: func(context.Context, string) (*flow.Flow, error) {
			s := dsl.New().Add("title").Name("Title").Required().MustBuild()
			return flow.New(s, flow.WithCompleter(flow.CompleteFunc(func(_ context.Context, state flow.State) (string, error) {
				title, _ := state.String("title")
				return "note/" + title, nil
			}))), nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	engine := formwork.New(reg)

	started, err := engine.StartFlow(ctx, "create-note")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(started.Schema.Keys(), started.Version)

	next, err := engine.UpdateFlowState(ctx, started.FlowID, "title", "hello", &started.Version)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(next.Version)

	done, err := engine.CompleteFlow(ctx, started.FlowID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(done.Result)

	// Output:
	// [title] 1
	// 2
	// note/hello
}
