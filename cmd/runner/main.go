// Command runner executes a workflow JSON file locally: no database, no
// Redis, no queue. Events go to an in-memory bus and print to stderr;
// outputs print to stdout as JSON.
//
// Usage:
//
//	runner -workflow flow.json [-inputs inputs.json] [-secrets secrets.json] [-allow-http]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/myuon/flowit-sub001/common/condition"
	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/events"
	"github.com/myuon/flowit-sub001/common/executor"
	"github.com/myuon/flowit-sub001/common/httpclient"
	"github.com/myuon/flowit-sub001/common/logger"
	"github.com/myuon/flowit-sub001/common/node"
	"github.com/myuon/flowit-sub001/common/nodes"
	"github.com/myuon/flowit-sub001/common/security"
)

func main() {
	var (
		workflowPath = flag.String("workflow", "", "path to the workflow JSON file (required)")
		inputsPath   = flag.String("inputs", "", "path to a JSON file with workflow inputs")
		secretsPath  = flag.String("secrets", "", "path to a JSON file with secret values")
		allowHTTP    = flag.Bool("allow-http", false, "enable the http-request node (private hosts allowed)")
		logLevel     = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	if *workflowPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	log := logger.New(*logLevel, "text")

	wf, err := loadWorkflow(*workflowPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var inputs map[string]any
	if err := loadJSON(*inputsPath, &inputs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	var secrets map[string]string
	if err := loadJSON(*secretsPath, &secrets); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	registry := node.NewRegistry(log)
	deps := nodes.Deps{Evaluator: condition.NewEvaluator()}
	if *allowHTTP {
		// Local runs talk to local services; the private-IP guard is off.
		deps.HTTP = httpclient.New(security.NewGuard(true, nil), log)
	}
	nodes.RegisterAll(registry, deps)

	if errs := dsl.Validate(wf, registry); len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "Workflow is invalid:")
		for _, msg := range errs.Strings() {
			fmt.Fprintf(os.Stderr, "  - %s\n", msg)
		}
		os.Exit(1)
	}

	executionID := uuid.New().String()

	// Live events mirror what the fanout gateway would deliver.
	bus := events.NewMemoryBus()
	defer bus.Close()
	eventCh := bus.Subscribe("local")
	var eventWG sync.WaitGroup
	eventWG.Add(1)
	go func() {
		defer eventWG.Done()
		for event := range eventCh {
			fmt.Fprintf(os.Stderr, "[event] %s %s\n", event.Type, event.NodeID)
		}
	}()

	ctx := context.Background()
	exec := executor.New(registry, log)
	st, runErr := exec.Execute(ctx, wf, executor.Options{
		ExecutionID: executionID,
		WorkflowID:  "local",
		Inputs:      inputs,
		Secrets:     secrets,
		OnNodeStart: func(nodeID, nodeType string) {
			_ = bus.Publish(ctx, events.Event{
				Type: events.TypeNodeStarted, ExecutionID: executionID,
				WorkflowID: "local", NodeID: nodeID, NodeType: nodeType,
			})
		},
		OnNodeComplete: func(nodeID, nodeType string) {
			_ = bus.Publish(ctx, events.Event{
				Type: events.TypeNodeCompleted, ExecutionID: executionID,
				WorkflowID: "local", NodeID: nodeID, NodeType: nodeType,
			})
		},
	})

	bus.Close()
	eventWG.Wait()

	for _, line := range st.Logs {
		fmt.Fprintln(os.Stderr, line)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Execution failed: %s\n", st.Err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(st.WorkflowOutputs(wf), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func loadWorkflow(path string) (*dsl.Workflow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	var wf dsl.Workflow
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, fmt.Errorf("failed to parse workflow file: %w", err)
	}
	return &wf, nil
}

func loadJSON(path string, target any) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
