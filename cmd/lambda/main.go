// Package main runs the translation pipeline as an AWS Lambda function.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/goccy/go-json"
	"github.com/goliatone/go-autotranslate"
)

// ConfigPathEnv names the YAML configuration bundled with the function.
const ConfigPathEnv = "AUTOTRANSLATE_CONFIG"

var (
	moduleOnce sync.Once
	module     *autotranslate.Module
	moduleErr  error
)

var moduleBuilder = func() (*autotranslate.Module, error) {
	cfg := autotranslate.DefaultConfig()
	if path := os.Getenv(ConfigPathEnv); path != "" {
		loaded, err := autotranslate.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	return autotranslate.New(cfg)
}

func main() {
	lambda.Start(handleRequest)
}

func loadModule() (*autotranslate.Module, error) {
	moduleOnce.Do(func() {
		module, moduleErr = moduleBuilder()
	})
	return module, moduleErr
}

// Response is returned for every translate invocation.
type Response struct {
	autotranslate.Summary
	OK bool `json:"ok"`
}

func handleRequest(ctx context.Context, event json.RawMessage) (any, error) {
	if warmup, ok := isWarmupEvent(event); ok {
		return warmup, nil
	}

	var req autotranslate.TranslateRequest
	if err := json.Unmarshal(event, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	mod, err := loadModule()
	if err != nil {
		return nil, fmt.Errorf("bootstrap module: %w", err)
	}

	if err := mod.ImportSource(ctx, req); err != nil {
		return nil, fmt.Errorf("import source: %w", err)
	}
	result, err := mod.Translate(ctx, req)
	if err != nil && result == nil {
		return nil, err
	}
	return Response{Summary: autotranslate.Summarize(result), OK: result.OK()}, err
}

const warmupSource = "warmup"

type warmupResponse struct {
	Status string `json:"status"`
}

func isWarmupEvent(event json.RawMessage) (warmupResponse, bool) {
	var probe struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(event, &probe); err != nil || probe.Source != warmupSource {
		return warmupResponse{}, false
	}
	if _, err := loadModule(); err != nil {
		return warmupResponse{Status: "error"}, true
	}
	return warmupResponse{Status: "warm"}, true
}
