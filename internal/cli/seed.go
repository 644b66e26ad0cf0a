package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/teamdir/internal/roster"
	"github.com/roach88/teamdir/internal/store"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database string
	Count    int
	From     string // YAML file with a members list
}

// SeedResult is the output of the seed command.
type SeedResult struct {
	Database string `json:"database"`
	Members  int    `json:"members"`
}

// memberFile is the layout of a --from file.
type memberFile struct {
	Members []roster.Member `yaml:"members"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the stored roster",
		Long: `Replace the members table of the server database.

By default the deterministic demo dataset of --count members is written.
With --from, members are read from a YAML file:

  members:
    - id: m1
      name: Ada Lovelace
      email: ada@example.com
      role: Admin

Example:
  teamdir seed --count 250
  teamdir seed --db ./teamdir.db --from ./members.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("db") {
				opts.Database = opts.Config.Server.Database
			}
			return runSeed(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().IntVar(&opts.Count, "count", roster.DefaultDatasetSize, "number of generated members")
	cmd.Flags().StringVar(&opts.From, "from", "", "YAML file with the members to store")

	return cmd
}

func runSeed(opts *SeedOptions, cmd *cobra.Command) error {
	f := opts.Formatter(cmd)

	members, err := seedMembers(opts)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := st.SeedMembers(ctx, members); err != nil {
		return WrapExitError(ExitFailure, "failed to seed members", err)
	}

	result := SeedResult{Database: opts.Database, Members: len(members)}
	if f.JSON() {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "Seeded %d members into %s\n", result.Members, result.Database)
	return nil
}

func seedMembers(opts *SeedOptions) ([]roster.Member, error) {
	if opts.From == "" {
		if opts.Count < 0 {
			return nil, NewExitError(ExitCommandError, "--count must not be negative")
		}
		return roster.Generate(opts.Count), nil
	}

	data, err := os.ReadFile(opts.From)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read members file", err)
	}
	var file memberFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to parse members file", err)
	}
	return file.Members, nil
}
