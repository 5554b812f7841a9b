// Package main calibrates simulation parameters with CMA-ES, searching
// for energy and reproduction settings that keep the ecosystem stable.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/wildfen/ecosim/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int64("max-ticks", 200000, "Simulation duration per evaluation in ticks")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 150, "Maximum number of evaluations")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Validate the base config up front.
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	params := NewParamVector()

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, *maxTicks, evalSeeds, *configPath)

	logPath := filepath.Join(*outputDir, "calibrate_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	evalCount := 0
	bestFitness := 1e18
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			fitness := evaluator.Evaluate(raw)

			evalCount++
			record := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.2f", fitness)}
			for _, v := range raw {
				record = append(record, fmt.Sprintf("%.5f", v))
			}
			logWriter.Write(record)
			logWriter.Flush()

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = raw
				log.Printf("eval %d: new best fitness %.2f (elapsed %s)",
					evalCount, fitness, time.Since(startTime).Round(time.Second))
			}
			return fitness
		},
	}

	dim := params.Dim()
	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   4 + 3*dim/2,
	}

	initX := params.Normalize(params.DefaultVector())
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil && result == nil {
		log.Fatalf("optimization failed: %v", err)
	}

	if bestParams == nil {
		bestParams = params.Denormalize(result.X)
	}

	// Write the winning parameters both as JSON and as a ready-to-use
	// config overlay.
	best := make(map[string]float64, dim)
	for i, spec := range params.Specs {
		best[spec.Name] = bestParams[i]
	}
	data, _ := json.MarshalIndent(best, "", "  ")
	if err := os.WriteFile(filepath.Join(*outputDir, "best_params.json"), data, 0644); err != nil {
		log.Fatalf("failed to write best params: %v", err)
	}

	tunedCfg, err := config.Load(*configPath)
	if err == nil {
		params.ApplyToConfig(tunedCfg, bestParams)
		if err := tunedCfg.WriteYAML(filepath.Join(*outputDir, "tuned_config.yaml")); err != nil {
			log.Printf("failed to write tuned config: %v", err)
		}
	}

	log.Printf("done: %d evaluations, best fitness %.2f, elapsed %s",
		evalCount, bestFitness, time.Since(startTime).Round(time.Second))
}
