package infra

import (
	"fmt"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner with the deployment identity.
func PrintBanner(cfg *Config) {
	color := ColorCyan
	policy := cfg.Chain.PeerPolicy
	if policy == "" {
		policy = "owner-set"
	}
	if policy == "governed" {
		color = ColorYellow
	}

	fmt.Println()
	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)
	fmt.Printf("%s#                    GUSD Chain Node                      #%s\n", color, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)
	fmt.Printf("%s#   CHAIN:    %-35d #%s\n", color, cfg.Chain.ID, ColorReset)
	fmt.Printf("%s#   CURRENCY: %-35s #%s\n", color, fmt.Sprintf("%s (%d dec)", cfg.Currency.ID, cfg.Currency.Decimals), ColorReset)
	fmt.Printf("%s#   POLICY:   %-35s #%s\n", color, policy, ColorReset)
	fmt.Printf("%s#   VERSION:  %-35s #%s\n", color, cfg.App.Version, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)

	if cfg.Chain.ID == cfg.Chain.GovernanceID {
		fmt.Printf("%s#   THIS IS THE GOVERNANCE CHAIN                          #%s\n", ColorRed, ColorReset)
	}

	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Println()
}
