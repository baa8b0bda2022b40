// gametest runs every story file in a directory for a few seconds of
// unattended play and records how far each one got. It's the regression
// harness used against a downloaded story corpus (see cmd/scraper).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pmcgill/zvm/zmachine"
)

// TestResult captures the outcome of running a single story
type TestResult struct {
	Filename     string   `json:"filename"`
	Version      uint8    `json:"version"`
	Success      bool     `json:"success"`
	ErrorMessage string   `json:"error_message,omitempty"`
	FirstScreen  []string `json:"first_screen,omitempty"`
}

// cannedInput is fed to stories that ask for input so they either quit or
// show a second screen before the timeout.
var cannedInput = []string{"quit", "y", "yes", "q"}

func runStory(path string, timeout time.Duration) TestResult {
	result := TestResult{Filename: filepath.Base(path)}

	romBytes, err := os.ReadFile(path)
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}
	if len(romBytes) > 0 {
		result.Version = romBytes[0]
	}

	outputChannel := make(chan any, 4096)
	inputChannel := make(chan zmachine.InputResponse, 8)
	z, err := zmachine.LoadRom(romBytes, inputChannel, outputChannel)
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}

	go z.Run()

	var transcript strings.Builder
	inputsSent := 0
	deadline := time.After(timeout)

	for {
		select {
		case msg := <-outputChannel:
			switch msg := msg.(type) {
			case string:
				transcript.WriteString(msg)
			case zmachine.InputRequest:
				if inputsSent < len(cannedInput) {
					inputChannel <- zmachine.InputResponse{Text: cannedInput[inputsSent], TerminatingKey: 13}
					inputsSent++
				} else {
					result.Success = true
					result.FirstScreen = screenLines(transcript.String())
					return result
				}
			case zmachine.CharacterRequest:
				inputChannel <- zmachine.InputResponse{Text: " "}
			case zmachine.Quit:
				result.Success = true
				result.FirstScreen = screenLines(transcript.String())
				return result
			case zmachine.RuntimeError:
				result.ErrorMessage = string(msg)
				result.FirstScreen = screenLines(transcript.String())
				return result
			}
		case <-deadline:
			result.ErrorMessage = "timed out"
			result.FirstScreen = screenLines(transcript.String())
			return result
		}
	}
}

func isStoryFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".z1", ".z2", ".z3", ".z4", ".z5", ".z6", ".z7", ".z8":
		return true
	}
	return false
}

func screenLines(transcript string) []string {
	lines := strings.Split(transcript, "\n")
	if len(lines) > 25 {
		lines = lines[:25]
	}
	return lines
}

func main() {
	storiesDir := flag.String("stories", "stories", "Directory containing z-machine story files")
	outputFile := flag.String("output", "testdata/results.json", "File to write JSON results to")
	singleGame := flag.String("game", "", "Test a single story file instead of the whole directory")
	timeout := flag.Duration("timeout", 5*time.Second, "Per-story time limit")
	flag.Parse()

	if *singleGame != "" {
		result := runStory(*singleGame, *timeout)
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		if !result.Success {
			os.Exit(1)
		}
		return
	}

	entries, err := os.ReadDir(*storiesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read stories directory: %v\n", err)
		os.Exit(1)
	}

	var results []TestResult
	passed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isStoryFile(entry.Name()) {
			continue
		}

		result := runStory(filepath.Join(*storiesDir, entry.Name()), *timeout)
		results = append(results, result)
		status := "FAIL"
		if result.Success {
			status = "ok"
			passed++
		}
		fmt.Printf("%-40s v%d %s\n", result.Filename, result.Version, status)
	}

	if err := os.MkdirAll(filepath.Dir(*outputFile), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}
	output, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(*outputFile, output, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write results: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n%d/%d stories ran cleanly\n", passed, len(results))
}
