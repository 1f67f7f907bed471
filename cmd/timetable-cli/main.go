// Package main implements timetable-cli, offline access to the generation engine.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
)

var (
	workloadPath    string
	preferencesPath string
	settingsPath    string
	verbose         bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "timetable-cli",
	Short:         "Generate and inspect school timetables from JSON files",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log engine progress to stderr")

	generateCmd.Flags().StringVar(&workloadPath, "workload", "", "workload JSON file (required)")
	generateCmd.Flags().StringVar(&preferencesPath, "preferences", "", "generation preferences JSON file")
	_ = generateCmd.MarkFlagRequired("workload")

	validateSettingsCmd.Flags().StringVar(&settingsPath, "settings", "", "generation settings JSON file (required)")
	_ = validateSettingsCmd.MarkFlagRequired("settings")

	timeSlotsCmd.Flags().StringVar(&settingsPath, "settings", "", "generation settings JSON file (required)")
	_ = timeSlotsCmd.MarkFlagRequired("settings")

	rootCmd.AddCommand(generateCmd, validateSettingsCmd, timeSlotsCmd, migrateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a weekly schedule from a workload file",
	Long: `Generate a weekly schedule from a workload file and print the result as JSON.

Examples:
  # Generate with default preferences
  timetable-cli generate --workload workload.json

  # Generate with conflict resolution enabled
  timetable-cli generate --workload workload.json --preferences prefs.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logr := zap.NewNop()
		if verbose {
			if logr, err = logger.New(cfg); err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck
		}
		engine := timetable.NewEngine(timetable.EngineConfig{
			MaxWeeklyHours: cfg.Timetable.MaxWeeklyHours,
			CoreSubjects:   cfg.Timetable.CoreSubjects,
		}, logr)
		limits := timetable.WorkloadLimits{
			MaxWeeklyHours:     cfg.Timetable.MaxWeeklyHours,
			WarningWeeklyHours: cfg.Timetable.WarningWeeklyHours,
		}
		return runGenerate(cmd.OutOrStdout(), engine, limits, workloadPath, preferencesPath)
	},
}

var validateSettingsCmd = &cobra.Command{
	Use:   "validate-settings",
	Short: "Validate a generation settings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidateSettings(cmd.OutOrStdout(), settingsPath)
	},
}

var timeSlotsCmd = &cobra.Command{
	Use:   "time-slots",
	Short: "Print the daily time-slot template of a settings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTimeSlots(cmd.OutOrStdout(), settingsPath)
	},
}

// runGenerate validates the workload against limits when the file carries no
// validation of its own, then runs the engine.
func runGenerate(out io.Writer, engine *timetable.Engine, limits timetable.WorkloadLimits, workloadFile, preferencesFile string) error {
	var data models.WorkloadData
	if err := readJSON(workloadFile, &data); err != nil {
		return err
	}
	var prefs models.GenerationPreferences
	if preferencesFile != "" {
		if err := readJSON(preferencesFile, &prefs); err != nil {
			return err
		}
	}
	if len(data.TimeSlots) == 0 && data.Settings != nil {
		slots, err := timetable.GenerateTimeSlots(*data.Settings)
		if err != nil {
			return err
		}
		data.TimeSlots = slots
	}
	if data.Validation == nil {
		validation := timetable.ValidateWorkload(data.TeachingLoads, timetable.WorkloadContext{
			InstitutionID:  data.Institution.ID,
			AcademicYearID: data.AcademicYearID,
		}, limits)
		data.Validation = &validation
	}

	result, err := engine.Generate(data, prefs, models.Actor{UserID: "cli"})
	if err != nil {
		return err
	}
	return writeJSON(out, result)
}

func runValidateSettings(out io.Writer, file string) error {
	var settings models.GenerationSettings
	if err := readJSON(file, &settings); err != nil {
		return err
	}
	result := timetable.ValidateSettings(settings)
	if err := writeJSON(out, result); err != nil {
		return err
	}
	if !result.IsValid {
		return fmt.Errorf("settings are invalid")
	}
	return nil
}

func runTimeSlots(out io.Writer, file string) error {
	var settings models.GenerationSettings
	if err := readJSON(file, &settings); err != nil {
		return err
	}
	slots, err := timetable.GenerateTimeSlots(settings)
	if err != nil {
		return err
	}
	return writeJSON(out, slots)
}

func readJSON(path string, dest interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(out io.Writer, value interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
