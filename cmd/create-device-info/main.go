// create-device-info writes a fresh device.json for the mobile API service.
// It is a factory provisioning tool: the service itself never creates or
// modifies the identity file. The authorization key can additionally be
// saved as a QR code PNG for printing on the product.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/sifis-home/wp6-mobile-application-api/internal/config"
	"github.com/sifis-home/wp6-mobile-application-api/internal/identity"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		output     = flag.String("o", "", "output directory (default: SIFIS_HOME_PATH or /opt/sifis-home)")
		force      = flag.Bool("force", false, "overwrite an existing device.json")
		privateKey = flag.String("private-key", "", "custom path for the DHT private key file")
		qrFile     = flag.String("qr", "", "save the authorization key as a QR code PNG")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <product-name>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	productName := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	baseDir := cfg.BaseDir
	if *output != "" {
		baseDir = *output
	}
	infoPath := filepath.Join(baseDir, identity.InfoFileName)

	if _, err := os.Stat(infoPath); err == nil && !*force {
		return fmt.Errorf("%s already exists; use -force to overwrite it", infoPath)
	}

	id, err := identity.New(productName, baseDir)
	if err != nil {
		return err
	}
	if *privateKey != "" {
		id.PrivateKeyFile = *privateKey
	}

	if err := id.Save(infoPath); err != nil {
		return fmt.Errorf("write device identity: %w", err)
	}
	fmt.Println("device identity written to:", infoPath)
	fmt.Println("uuid:              ", id.UUID)
	fmt.Println("authorization key: ", id.AuthorizationKey.Hex())

	if *qrFile != "" {
		if err := qrcode.WriteFile(id.AuthorizationKey.Hex(), qrcode.Medium, 256, *qrFile); err != nil {
			return fmt.Errorf("write qr code: %w", err)
		}
		fmt.Println("qr code saved as:  ", *qrFile)
	}
	return nil
}
