package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/entrance/internal/browser"
	"github.com/tessro/entrance/internal/spotify/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Spotify authentication",
	Long:  `Commands for managing Spotify OAuth authentication.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Spotify",
	Long:  `Opens a browser to authenticate with Spotify using OAuth PKCE flow.`,
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored Spotify credentials",
	Long:  `Removes the stored Spotify OAuth tokens from the local machine.`,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  `Shows the current Spotify authentication status.`,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	if cfg.Spotify.ClientID == "" {
		return fmt.Errorf("spotify.client_id not configured. Set it in ~/.entrancerc or via ENTRANCE_SPOTIFY_CLIENT_ID")
	}

	oauthCfg := auth.NewConfig(cfg.Spotify.ClientID, cfg.Spotify.RedirectURI)
	login, err := auth.NewLogin(oauthCfg)
	if err != nil {
		return err
	}

	addr, err := auth.CallbackAddr(oauthCfg.RedirectURL)
	if err != nil {
		return err
	}
	callbackServer, err := auth.NewCallbackServer(addr)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	defer func() { _ = callbackServer.Shutdown(context.Background()) }()

	authURL := login.AuthURL()
	fmt.Println("Opening browser for Spotify authentication...")
	if err := browser.Open(authURL); err != nil {
		fmt.Printf("Could not open browser automatically.\n")
		fmt.Printf("Please open this URL in your browser:\n\n%s\n\n", authURL)
	}

	fmt.Println("Waiting for authentication...")
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	result, err := callbackServer.Wait(ctx)
	if err != nil {
		return fmt.Errorf("authentication timed out: %w", err)
	}

	fmt.Println("Exchanging code for tokens...")
	token, err := login.Exchange(ctx, result)
	if err != nil {
		return err
	}

	storage, err := auth.NewTokenStorage(cfg.Spotify.TokenFile)
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}
	if err := storage.Save(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	conn, err := connectSpotify(ctx, commandLogger())
	if err != nil {
		return err
	}
	user, err := conn.currentUser(ctx)
	if err != nil {
		fmt.Println("Authentication successful! Token stored.")
		return nil
	}

	if JSONOutput() {
		return printJSON(map[string]any{
			"status":       "authenticated",
			"user_id":      user.ID,
			"display_name": user.DisplayName,
			"product":      user.Product,
		})
	}
	fmt.Printf("Successfully authenticated as %s\n", user.DisplayName)
	if !user.Premium() {
		fmt.Println("Note: playback control needs a Spotify Premium account.")
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	storage, err := auth.NewTokenStorage(cfg.Spotify.TokenFile)
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	if !storage.Exists() {
		if JSONOutput() {
			return printJSON(map[string]string{"status": "not_authenticated"})
		}
		fmt.Println("Not authenticated with Spotify.")
		return nil
	}

	if err := storage.Delete(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "logged_out"})
	}
	fmt.Println("Logged out of Spotify.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	storage, err := auth.NewTokenStorage(cfg.Spotify.TokenFile)
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	token, err := storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}
	if token == nil {
		if JSONOutput() {
			return printJSON(map[string]any{"authenticated": false})
		}
		fmt.Println("Not authenticated with Spotify.")
		fmt.Println("Run 'entrance auth login' to authenticate.")
		return nil
	}

	ctx := cmd.Context()
	conn, err := connectSpotify(ctx, commandLogger())
	if err != nil {
		return err
	}
	user, err := conn.currentUser(ctx)
	if err != nil {
		if JSONOutput() {
			return printJSON(map[string]any{
				"authenticated": true,
				"valid":         false,
				"error":         err.Error(),
			})
		}
		fmt.Printf("Token may be expired or revoked: %v\n", err)
		fmt.Println("Run 'entrance auth login' to re-authenticate.")
		return nil
	}

	if JSONOutput() {
		return printJSON(map[string]any{
			"authenticated": true,
			"valid":         true,
			"user_id":       user.ID,
			"display_name":  user.DisplayName,
			"product":       user.Product,
			"token_file":    storage.Path(),
		})
	}
	fmt.Printf("Authenticated as: %s\n", user.DisplayName)
	fmt.Printf("Account type: %s\n", user.Product)
	fmt.Printf("Token file: %s\n", storage.Path())
	return nil
}
