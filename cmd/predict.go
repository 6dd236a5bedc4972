package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/offer-predictor/internal/candidate"
	"github.com/spigell/offer-predictor/internal/predictor"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict offer acceptance for one candidate",
	Long: `Predict offer acceptance for one candidate.

Values are taken from flags, or asked one by one with --interactive.`,
	Run: func(cmd *cobra.Command, _ []string) {
		predict(cmd)
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)

	addProfileFlags(predictCmd)
	predictCmd.Flags().BoolP("interactive", "i", false, "fill the form interactively")
	predictCmd.Flags().Bool("output-json", false, "print the prediction as json")
}

func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

func addProfileFlags(cmd *cobra.Command) {
	for _, f := range candidate.Fields() {
		if f.Widget == candidate.WidgetSelect {
			cmd.Flags().String(flagName(f.Name), candidate.RoleIT.String(),
				fmt.Sprintf("%s, one of: %s", f.Label, strings.Join(f.Options, ", ")))
			continue
		}

		cmd.Flags().Int(flagName(f.Name), f.Default.(int), fmt.Sprintf("%s [%d-%d]", f.Label, f.Min, f.Max))
	}
}

func profileFromFlags(cmd *cobra.Command) (candidate.Profile, error) {
	profile := candidate.DefaultProfile()

	for _, f := range candidate.Fields() {
		if f.Widget == candidate.WidgetSelect {
			continue
		}

		v, err := cmd.Flags().GetInt(flagName(f.Name))
		if err != nil {
			return profile, err
		}
		if err := profile.Set(f.Name, v); err != nil {
			return profile, err
		}
	}

	roleName, err := cmd.Flags().GetString(flagName(candidate.FieldRole))
	if err != nil {
		return profile, err
	}

	role, err := candidate.ParseRole(roleName)
	if err != nil {
		return profile, err
	}
	profile.Role = role

	return profile, nil
}

// rangeValidator accepts whole numbers inside the field bounds.
func rangeValidator(f candidate.Field) promptui.ValidateFunc {
	return func(input string) error {
		v, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil {
			return fmt.Errorf("%s must be a whole number", f.Label)
		}
		if !f.Contains(v) {
			return fmt.Errorf("%s must be between %d and %d", f.Label, f.Min, f.Max)
		}
		return nil
	}
}

func profileFromPrompt() (candidate.Profile, error) {
	profile := candidate.DefaultProfile()

	for _, f := range candidate.Fields() {
		if f.Widget == candidate.WidgetSelect {
			selectRole := promptui.Select{
				Label: f.Label,
				Items: f.Options,
			}

			_, selected, err := selectRole.Run()
			if err != nil {
				return profile, err
			}

			role, err := candidate.ParseRole(selected)
			if err != nil {
				return profile, err
			}
			profile.Role = role
			continue
		}

		prompt := promptui.Prompt{
			Label:    fmt.Sprintf("%s [%d-%d]", f.Label, f.Min, f.Max),
			Default:  strconv.Itoa(f.Default.(int)),
			Validate: rangeValidator(f),
		}

		answer, err := prompt.Run()
		if err != nil {
			return profile, err
		}

		v, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil {
			return profile, err
		}
		if err := profile.Set(f.Name, v); err != nil {
			return profile, err
		}
	}

	return profile, nil
}

func predict(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()

	a, err := loadArtifacts(config, logger)
	if err != nil {
		logger.Fatal("loading artifacts", zap.Error(err))
	}

	p := predictor.New(a.classifier, a.metrics, logger)

	var profile candidate.Profile
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		profile, err = profileFromPrompt()
	} else {
		profile, err = profileFromFlags(cmd)
	}
	if err != nil {
		logger.Fatal("reading candidate profile", zap.Error(err))
	}

	prediction, err := p.Predict(ctx, profile)
	if err != nil {
		logger.Fatal("predicting offer acceptance", zap.Error(err))
	}

	asJSON, _ := cmd.Flags().GetBool("output-json")
	if err := writePrediction(cmd.OutOrStdout(), p, prediction, asJSON); err != nil {
		logger.Fatal("writing prediction", zap.Error(err))
	}
}

func writePrediction(w io.Writer, p *predictor.Predictor, prediction *predictor.Prediction, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*predictor.Prediction
			Percent string `json:"percent"`
			Message string `json:"message"`
			Insight string `json:"insight"`
		}{
			Prediction: prediction,
			Percent:    prediction.Percent(),
			Message:    prediction.Message(),
			Insight:    p.Insight(),
		})
	}

	_, err := fmt.Fprintf(w, "%s %s\n💡 %s\n", prediction.Tier.Icon(), prediction.Message(), p.Insight())
	return err
}
