package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumahq/companion/internal/memory"
	"github.com/lumahq/companion/internal/progress"
)

var memoriesCmd = &cobra.Command{
	Use:   "memories",
	Short: "Inspect and manage what the companion remembers",
}

var memoriesListCmd = &cobra.Command{
	Use:   "list [user_id]",
	Short: "List a user's memories, most important first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		typeFilter, _ := cmd.Flags().GetString("type")
		filter := memory.ListFilter{MemoryType: memory.Type(typeFilter)}
		if typeFilter != "" && !memory.ValidTypes[filter.MemoryType] {
			return fmt.Errorf("invalid type %q", typeFilter)
		}

		facts, err := memory.NewStore(database).ListByUser(cmd.Context(), args[0], filter)
		if err != nil {
			return err
		}
		if len(facts) == 0 {
			fmt.Println("No memories stored.")
			return nil
		}

		for _, f := range facts {
			fmt.Printf("  [%s, importance %d] %s: %s\n", f.MemoryType, f.Importance, f.Key, f.Value)
		}
		return nil
	},
}

var memoriesAddCmd = &cobra.Command{
	Use:   "add [user_id] [key] [value]",
	Short: "Store a memory about a user",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		memType, _ := cmd.Flags().GetString("type")
		importance, _ := cmd.Flags().GetInt("importance")

		f := memory.Fact{
			UserID:     args[0],
			Key:        args[1],
			Value:      args[2],
			MemoryType: memory.Type(memType),
			Importance: importance,
		}
		if !memory.ValidTypes[f.MemoryType] {
			return fmt.Errorf("invalid type %q", memType)
		}
		if f.Importance < 1 || f.Importance > 5 {
			return fmt.Errorf("importance must be between 1 and 5")
		}

		stored, err := memory.NewStore(database).Upsert(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Printf("Remembered %s/%s for %s.\n", stored.MemoryType, stored.Key, stored.UserID)
		return nil
	},
}

// importedFact is the JSON shape accepted by `luma memories import`.
type importedFact struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	MemoryType string `json:"memory_type"`
	Importance int    `json:"importance"`
}

var memoriesImportCmd = &cobra.Command{
	Use:   "import [user_id] [file]",
	Short: "Import memories for a user from a JSON file",
	Long:  `Reads a JSON array of {key, value, memory_type, importance} objects and upserts each as a memory for the given user.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[1], err)
		}
		var facts []importedFact
		if err := json.Unmarshal(data, &facts); err != nil {
			return fmt.Errorf("parsing %s: %w", args[1], err)
		}
		if len(facts) == 0 {
			fmt.Println("Nothing to import.")
			return nil
		}

		store := memory.NewStore(database)
		reporter := progress.NewReporter()
		reporter.Start("Importing memories", len(facts))

		imported := 0
		for _, imp := range facts {
			f := memory.Fact{
				UserID:     args[0],
				Key:        imp.Key,
				Value:      imp.Value,
				MemoryType: memory.Type(imp.MemoryType),
				Importance: imp.Importance,
			}
			if f.MemoryType == "" {
				f.MemoryType = memory.TypeFact
			}
			if f.Importance == 0 {
				f.Importance = 3
			}
			if f.Key == "" || f.Value == "" || !memory.ValidTypes[f.MemoryType] {
				fmt.Fprintf(os.Stderr, "\nSkipping invalid entry: %+v\n", imp)
				reporter.Advance()
				continue
			}
			if _, err := store.Upsert(cmd.Context(), f); err != nil {
				return fmt.Errorf("importing %s: %w", f.Key, err)
			}
			imported++
			reporter.Advance()
		}
		reporter.Finish()

		fmt.Printf("Imported %d of %d memories for %s.\n", imported, len(facts), args[0])
		return nil
	},
}

func init() {
	memoriesListCmd.Flags().String("type", "", "filter by type: fact, preference, goal, concern, achievement, interest")
	memoriesAddCmd.Flags().String("type", "fact", "memory type")
	memoriesAddCmd.Flags().Int("importance", 3, "importance from 1 to 5")

	memoriesCmd.AddCommand(memoriesListCmd)
	memoriesCmd.AddCommand(memoriesAddCmd)
	memoriesCmd.AddCommand(memoriesImportCmd)
	rootCmd.AddCommand(memoriesCmd)
}
