package main

import (
	"errors"
	"fmt"
	"time"

	"animvid/config"
	"animvid/models"
	"animvid/utils"

	"github.com/spf13/cobra"
)

func newTokenCommand() *cobra.Command {
	var req models.ConvertJob
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a convert request for the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(req.Inputs) == 0 {
				return errors.New("at least one --input is required")
			}
			secret := config.GetJWTSecret()
			if len(secret) == 0 {
				return errors.New("ANIMVID_JWT_SECRET is not set")
			}
			tok, err := signConvertRequest(req, subject, ttl, secret, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&req.Inputs, "input", "i", nil, "Input path on the server (repeatable)")
	cmd.Flags().StringVarP(&req.Format, "format", "f", "", "Output format")
	cmd.Flags().IntVar(&req.FPS, "fps", 0, "Frame rate")
	cmd.Flags().IntVarP(&req.Quality, "quality", "q", 0, "Video quality as CRF")
	cmd.Flags().StringVarP(&req.Resolution, "resolution", "r", "", "Resolution policy")
	cmd.Flags().StringVarP(&req.OutputDir, "output", "o", "", "Output directory on the server")
	cmd.Flags().BoolVar(&req.Combine, "combine", false, "Concatenate all inputs into one output")
	cmd.Flags().StringVar(&req.CallbackURL, "callback", "", "URL notified when the job finishes")
	cmd.Flags().StringVar(&subject, "subject", "animvid-cli", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 10*time.Minute, "Token lifetime")
	return cmd
}

func signConvertRequest(req models.ConvertJob, subject string, ttl time.Duration, secret []byte, now time.Time) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("--ttl must be positive, got %v", ttl)
	}
	return utils.CreateConvertJWT(&models.ConvertClaims{
		Subject:   subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
		Job:       req,
	}, secret)
}
