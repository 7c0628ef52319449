package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/sguter90/sensorcharts/pkg/auth"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Access token commands",
	Long:  `Commands for inspecting the platform access token.`,
}

var tokenInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the claims of the access token",
	Long: `Decode the access token from MONITOR_ACCESS_TOKEN (or an interactive
prompt) and print its subject and expiry. The signature is not verified.`,
	RunE: runTokenInspect,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenInspectCmd)
}

func runTokenInspect(cmd *cobra.Command, args []string) error {
	token := appConfig(cmd).AccessToken
	if token == "" {
		var err error
		if token, err = promptSecret("Enter access token: "); err != nil {
			return err
		}
	}
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	claims, err := auth.ParseClaims(token)
	if err != nil {
		return err
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("Access Token")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Subject: %s\n", claims.Subject)
	fmt.Printf("Issuer: %s\n", claims.Issuer)

	if claims.IssuedAt != nil {
		fmt.Printf("Issued: %s\n", claims.IssuedAt.Format("2006-01-02 15:04:05"))
	}
	if claims.ExpiresAt == nil {
		fmt.Println("Expires: never")
	} else {
		remaining := time.Until(claims.ExpiresAt.Time).Round(time.Second)
		status := "valid"
		if remaining <= 0 {
			status = "expired"
		}
		fmt.Printf("Expires: %s (%s, %s)\n", claims.ExpiresAt.Format("2006-01-02 15:04:05"), status, remaining)
	}
	fmt.Println(strings.Repeat("=", 60))

	return nil
}
