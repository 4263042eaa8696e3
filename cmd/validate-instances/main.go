package main

import (
	"fmt"
	"os"

	"github.com/marcelsud/bot-gateway/registry"
)

/* validate-instances - Standalone CLI tool to validate instances.yaml
 * Usage: go run cmd/validate-instances/main.go [instances.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	// Get instances file path from args or use default
	instancesFile := "instances.yaml"
	if len(os.Args) > 1 {
		instancesFile = os.Args[1]
	}

	fmt.Printf("Validating instances file: %s\n", instancesFile)

	instances, err := registry.LoadStatic(instancesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d instance(s):\n", len(instances))

	for i, inst := range instances {
		fmt.Printf("\n%d. Instance: %d\n", i+1, inst.ID)
		fmt.Printf("   Token:  %s...\n", truncateToken(inst.Token))
		fmt.Printf("   Status: %s\n", inst.Status)
		fmt.Printf("   Cache:  %s\n", inst.Cache)
	}

	fmt.Printf("\n✓ All instances are valid!\n")
	os.Exit(0)
}

// truncateToken keeps tokens out of terminal scrollback.
func truncateToken(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12]
}
