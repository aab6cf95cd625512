package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PairQuant/pkg/molecule"
	"github.com/ChrisMcGann/PairQuant/pkg/partner"
	"github.com/ChrisMcGann/PairQuant/pkg/reader/evidence"
)

var (
	evidenceFile     string
	moleculesFile    string
	outEvidenceFile  string
	outMoleculesFile string
)

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Add the missing label partner of every molecule",
	Long: `Complete a molecule list so every singly labeled molecule is accompanied
by its complementary-label partner. Molecules carrying zero or two labels
are dropped. MS2 evidence of a molecule is copied to a synthesized partner
and flagged "no MS2".

Examples:
  # Complete every molecule of an evidence lookup
  pairquant complete --evidence evidence.yaml --out-evidence completed.yaml --out-molecules molecules.txt

  # Complete an explicit molecule list
  pairquant complete --evidence evidence.json --molecules molecules.txt --out-evidence completed.json --out-molecules completed.txt`,
	RunE: runComplete,
}

func init() {
	completeCmd.Flags().StringVar(&evidenceFile, "evidence", "", "Evidence lookup, .yaml or .json (required)")
	completeCmd.Flags().StringVar(&moleculesFile, "molecules", "", "Molecule list, one per line (default: every molecule of the lookup)")
	completeCmd.Flags().StringVar(&outEvidenceFile, "out-evidence", "", "Output evidence lookup, .yaml or .json (required)")
	completeCmd.Flags().StringVar(&outMoleculesFile, "out-molecules", "", "Output molecule list (required)")

	completeCmd.MarkFlagRequired("evidence")
	completeCmd.MarkFlagRequired("out-evidence")
	completeCmd.MarkFlagRequired("out-molecules")
}

func runComplete(cmd *cobra.Command, args []string) error {
	lookup, err := evidence.Load(evidenceFile)
	if err != nil {
		return err
	}

	var molecules []string
	if moleculesFile != "" {
		molecules, err = evidence.LoadMolecules(moleculesFile)
		if err != nil {
			return err
		}
	} else {
		molecules = lookup.Molecules()
	}
	fmt.Printf("Completing %d molecules...\n", len(molecules))

	modDB, err := loadModDatabase()
	if err != nil {
		return err
	}

	completer, err := partner.NewCompleter(cfg.LabelNames(), molecule.NewSigner(modDB), logger)
	if err != nil {
		return err
	}
	completed := completer.Complete(molecules, lookup)

	if err := evidence.Save(outEvidenceFile, lookup); err != nil {
		return err
	}
	if err := evidence.SaveMolecules(outMoleculesFile, completed); err != nil {
		return err
	}

	fmt.Printf("\nCompletion complete!\n")
	fmt.Printf("Molecules: %d\n", len(completed))
	fmt.Printf("Output: %s, %s\n", outEvidenceFile, outMoleculesFile)
	return nil
}
