package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicegate/internal/contract"
)

var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Voice contract tooling (validate, fingerprint, verify)",
}

var contractValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the voice contract's structure",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := contract.Load(cfg.Contract.Path)
		if err != nil {
			return err
		}
		fmt.Printf("OK: contract version %s, fingerprint %s\n", doc.Version(), doc.Fingerprint())
		return nil
	},
}

var contractFingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print the contract's canonical fingerprint",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := contract.Load(cfg.Contract.Path)
		if err != nil {
			return err
		}
		fmt.Println(doc.Fingerprint())
		return nil
	},
}

var contractLockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Write the contract fingerprint lock file",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := contract.Load(cfg.Contract.Path)
		if err != nil {
			return err
		}
		if err := doc.WriteLock(cfg.Contract.LockPath); err != nil {
			return err
		}
		fmt.Printf("locked %s to %s\n", cfg.Contract.LockPath, doc.Fingerprint())
		return nil
	},
}

var contractVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the contract against its fingerprint lock",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := contract.Load(cfg.Contract.Path)
		if err != nil {
			return err
		}
		if err := doc.VerifyLock(cfg.Contract.LockPath); err != nil {
			return err
		}
		fmt.Println("OK: contract matches fingerprint lock")
		return nil
	},
}

func init() {
	contractCmd.AddCommand(contractValidateCmd)
	contractCmd.AddCommand(contractFingerprintCmd)
	contractCmd.AddCommand(contractLockCmd)
	contractCmd.AddCommand(contractVerifyCmd)
}
