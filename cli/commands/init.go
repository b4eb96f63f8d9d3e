package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"github.com/spf13/cobra"
)

var initURL string

var initCmd = &cobra.Command{
	Use:   "init <project-name>",
	Short: "Initialize a new Brook project",
	Long: `Initialize a new Brook project with a standard directory structure.

Creates a project directory with:
  - main.go: A starter Go file using the Brook SDK
  - brook.yaml: Project configuration
  - downloads/: Directory for fetched files

Example:
  brook init myfetcher
  brook init myfetcher --url https://files.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initURL, "url", "https://files.example.com", "base URL for generated code")
}

func runInit(cmd *cobra.Command, args []string) error {
	projectPath := args[0]
	projectName := filepath.Base(projectPath)

	// Validate project name (just the base name, not full path)
	if err := validateProjectName(projectName); err != nil {
		return err
	}

	// Check if directory already exists
	if _, err := os.Stat(projectPath); err == nil {
		return fmt.Errorf("directory %q already exists", projectPath)
	}

	// Create directory structure
	dirs := []string{
		projectPath,
		filepath.Join(projectPath, "downloads"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Create .gitkeep files in empty directories
	gitkeepDirs := []string{
		filepath.Join(projectPath, "downloads"),
	}

	for _, dir := range gitkeepDirs {
		path := filepath.Join(dir, ".gitkeep")
		if err := os.WriteFile(path, []byte{}, 0644); err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
	}

	// Generate main.go
	mainPath := filepath.Join(projectPath, "main.go")
	if err := generateFile(mainPath, mainGoTemplate, templateData{
		URL: initURL,
	}); err != nil {
		return fmt.Errorf("failed to create main.go: %w", err)
	}

	// Generate brook.yaml
	configPath := filepath.Join(projectPath, "brook.yaml")
	if err := generateFile(configPath, brookYamlTemplate, templateData{
		URL: initURL,
	}); err != nil {
		return fmt.Errorf("failed to create brook.yaml: %w", err)
	}

	// Print success message
	fmt.Printf("Created Brook project: %s\n\n", projectName)
	fmt.Println("Next steps:")
	fmt.Printf("  cd %s\n", projectPath)
	fmt.Println("  export BROOK_TOKEN=<token>   # only if the endpoint requires auth")
	fmt.Println("  go run main.go")

	return nil
}

func validateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}

	// Check for invalid characters
	validName := regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid project name %q: must start with a letter and contain only letters, numbers, underscores, and hyphens", name)
	}

	// Check for reserved names
	reserved := []string{".", "..", "brook"}
	for _, r := range reserved {
		if name == r {
			return fmt.Errorf("invalid project name %q: reserved name", name)
		}
	}

	return nil
}

type templateData struct {
	URL string
}

func generateFile(path string, tmplContent string, data templateData) error {
	tmpl, err := template.New("file").Parse(tmplContent)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}

// Templates

var mainGoTemplate = `package main

import (
	"context"
	"fmt"
	"os"

	"github.com/petrel-labs/brook/core"
	"github.com/petrel-labs/brook/transport"
)

func main() {
	ctx := context.Background()
	client := core.NewClient(transport.New())

	resp, err := client.Get(ctx, "{{.URL}}")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	for resp.Body.Next(ctx) {
		os.Stdout.Write(resp.Body.Current())
	}
	if err := resp.Body.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
`

var brookYamlTemplate = `# Brook project configuration
default_endpoint: origin
chunk_size: 65536
read_timeout: 30s

# Endpoint configurations
# Bearer tokens should be set via 'brook keys set <name>' or BROOK_TOKEN
endpoints:
  origin:
    base_url: {{.URL}}
`
