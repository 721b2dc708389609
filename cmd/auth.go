package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencourier/driverd/internal/api"
	"github.com/opencourier/driverd/internal/auth"
	"github.com/opencourier/driverd/internal/models"
	"github.com/opencourier/driverd/internal/state"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the backend and store the session",
	Run: func(cmd *cobra.Command, args []string) {
		phone, _ := cmd.Flags().GetString("phone")
		password, _ := cmd.Flags().GetString("password")

		svc, _ := authService()
		driver, err := svc.Login(context.Background(), phone, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Login failed: %s\n", api.Message(err, "unknown error"))
			os.Exit(1)
		}
		fmt.Printf("Logged in as %s (%s)\n", driver.Name, driver.ID)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new driver account",
	Run: func(cmd *cobra.Command, args []string) {
		req := api.RegisterRequest{}
		req.Name, _ = cmd.Flags().GetString("name")
		req.Email, _ = cmd.Flags().GetString("email")
		req.Phone, _ = cmd.Flags().GetString("phone")
		req.Password, _ = cmd.Flags().GetString("password")
		req.VehicleType, _ = cmd.Flags().GetString("vehicle-type")
		req.VehicleNumber, _ = cmd.Flags().GetString("vehicle-number")
		req.LicenseNumber, _ = cmd.Flags().GetString("license-number")
		req.LicenseImage, _ = cmd.Flags().GetString("license-image")
		req.IDProofImage, _ = cmd.Flags().GetString("id-proof-image")

		svc, _ := authService()
		res, err := svc.Register(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Registration failed: %s\n", api.Message(err, "unknown error"))
			os.Exit(1)
		}
		fmt.Println(res.Message)
		if res.OTP != "" {
			fmt.Printf("OTP for %s: %s\n", res.Phone, res.OTP)
		}
	},
}

var verifyOTPCmd = &cobra.Command{
	Use:   "verify-otp",
	Short: "Verify the registration OTP and store the session",
	Run: func(cmd *cobra.Command, args []string) {
		phone, _ := cmd.Flags().GetString("phone")
		otp, _ := cmd.Flags().GetString("otp")

		svc, _ := authService()
		driver, err := svc.VerifyOTP(context.Background(), phone, otp)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Verification failed: %s\n", api.Message(err, "unknown error"))
			os.Exit(1)
		}
		fmt.Printf("Verified. Logged in as %s (%s)\n", driver.Name, driver.ID)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		svc, _ := authService()
		svc.Logout()
		fmt.Println("Logged out")
	},
}

func authService() (*auth.Service, *models.Config) {
	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	client := api.New(cfg.APIBaseURL, cfg.APITimeout)
	store := state.NewStore(dataDir(cfg))
	return auth.NewService(client, store), cfg
}

func init() {
	loginCmd.Flags().String("phone", "", "Registered phone number")
	loginCmd.Flags().String("password", "", "Account password")
	loginCmd.MarkFlagRequired("phone")
	loginCmd.MarkFlagRequired("password")

	registerCmd.Flags().String("name", "", "Full name")
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("phone", "", "Phone number")
	registerCmd.Flags().String("password", "", "Password")
	registerCmd.Flags().String("vehicle-type", "bike", "Vehicle type")
	registerCmd.Flags().String("vehicle-number", "", "Vehicle registration number")
	registerCmd.Flags().String("license-number", "", "Driving license number")
	registerCmd.Flags().String("license-image", "", "Path to license image")
	registerCmd.Flags().String("id-proof-image", "", "Path to ID proof image")
	registerCmd.MarkFlagRequired("name")
	registerCmd.MarkFlagRequired("phone")
	registerCmd.MarkFlagRequired("password")

	verifyOTPCmd.Flags().String("phone", "", "Phone number used at registration")
	verifyOTPCmd.Flags().String("otp", "", "One-time code")
	verifyOTPCmd.MarkFlagRequired("phone")
	verifyOTPCmd.MarkFlagRequired("otp")

	rootCmd.AddCommand(loginCmd, registerCmd, verifyOTPCmd, logoutCmd)
}
