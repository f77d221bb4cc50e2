package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gaslane/go-gaslane/common/types"
	"github.com/gaslane/go-gaslane/host"
	"github.com/gaslane/go-gaslane/ledger"
	"github.com/gaslane/go-gaslane/relay"
)

func initCmd() *cobra.Command {
	var authority string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "create the ledger record, optionally with a governance authority",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, db, err := openHost()
			if err != nil {
				return err
			}
			defer db.Close()
			var refs []host.AccountRef
			if authority != "" {
				address, err := parseAddress(authority)
				if err != nil {
					return err
				}
				refs = append(refs, host.AccountRef{Address: address, Signer: true})
			}
			raw, err := relay.EncodeInstruction(relay.OpInitialize, nil)
			if err != nil {
				return err
			}
			return h.Apply(cmd.Context(), refs, raw)
		},
	}
	cmd.Flags().StringVar(&authority, "authority", "", "governance authority address")
	return cmd
}

func topupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topup <consumer> <amount>",
		Short: "credit a consumer's pre-funded fee balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			consumer, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("parse amount: %w", err)
			}
			h, db, err := openHost()
			if err != nil {
				return err
			}
			defer db.Close()
			raw, err := relay.EncodeInstruction(relay.OpTopUp, &relay.TopUpArgs{Amount: amount})
			if err != nil {
				return err
			}
			return h.Apply(cmd.Context(), []host.AccountRef{{Address: consumer}}, raw)
		},
	}
}

func submitCmd() *cobra.Command {
	var nonce uint64
	cmd := &cobra.Command{
		Use:   "submit <sender> <receiver> <executor> <amount>",
		Short: "relay a transfer on behalf of a consumer",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			receiver, err := parseAddress(args[1])
			if err != nil {
				return err
			}
			executor, err := parseAddress(args[2])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseUint(args[3], 10, 64)
			if err != nil {
				return fmt.Errorf("parse amount: %w", err)
			}
			h, db, err := openHost()
			if err != nil {
				return err
			}
			defer db.Close()
			if !cmd.Flags().Changed("nonce") {
				rec, err := h.Record()
				if err != nil {
					return err
				}
				nonce = rec.NextNonce(sender)
			}
			raw, err := relay.EncodeInstruction(relay.OpSubmitTransaction,
				&relay.SubmitArgs{Amount: amount, Nonce: nonce})
			if err != nil {
				return err
			}
			refs := []host.AccountRef{
				{Address: sender, Signer: true},
				{Address: receiver},
				{Address: executor, Signer: true},
			}
			return h.Apply(cmd.Context(), refs, raw)
		},
	}
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "explicit nonce, defaults to the next expected one")
	return cmd
}

func feesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fees <authority> <fixed|percent> <value>",
		Short: "update the fee policy (governance authority only)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			authority, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			var modeType uint8
			switch args[1] {
			case "fixed":
				modeType = ledger.FeeModeFixed
			case "percent":
				modeType = ledger.FeeModePercent
			default:
				return fmt.Errorf("unknown fee mode %q", args[1])
			}
			value, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("parse fee value: %w", err)
			}
			h, db, err := openHost()
			if err != nil {
				return err
			}
			defer db.Close()
			raw, err := relay.EncodeInstruction(relay.OpUpdateFeeParams,
				&relay.UpdateFeeParamsArgs{FeeModeType: modeType, FeeValue: value})
			if err != nil {
				return err
			}
			return h.Apply(cmd.Context(), []host.AccountRef{{Address: authority, Signer: true}}, raw)
		},
	}
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "manage the fee token allow-list (governance authority only)",
	}
	run := func(op uint8) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			authority, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			raw, err := hex.DecodeString(args[1])
			if err != nil || len(raw) != types.TokenIDLength {
				return fmt.Errorf("token must be %d hex encoded bytes", types.TokenIDLength)
			}
			h, db, err := openHost()
			if err != nil {
				return err
			}
			defer db.Close()
			buf, err := relay.EncodeInstruction(op, &relay.TokenArgs{Token: types.TokenIDFromBytes(raw)})
			if err != nil {
				return err
			}
			return h.Apply(cmd.Context(), []host.AccountRef{{Address: authority, Signer: true}}, buf)
		}
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "allow <authority> <token-hex>",
			Short: "add a token to the allow-list",
			Args:  cobra.ExactArgs(2),
			RunE:  run(relay.OpAddAllowedToken),
		},
		&cobra.Command{
			Use:   "deny <authority> <token-hex>",
			Short: "remove a token from the allow-list",
			Args:  cobra.ExactArgs(2),
			RunE:  run(relay.OpRemoveAllowedToken),
		},
	)
	return cmd
}

func claimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <executor>",
		Short: "pay out accumulated fee earnings to the executor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			executor, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			h, db, err := openHost()
			if err != nil {
				return err
			}
			defer db.Close()
			raw, err := relay.EncodeInstruction(relay.OpClaimFees, nil)
			if err != nil {
				return err
			}
			refs := []host.AccountRef{
				{Address: executor, Signer: true},
				{Address: executor},
			}
			return h.Apply(cmd.Context(), refs, raw)
		},
	}
}

func depositCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <address> <amount>",
		Short: "credit native funds to an address (local simulation only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("parse amount: %w", err)
			}
			h, db, err := openHost()
			if err != nil {
				return err
			}
			defer db.Close()
			return h.Deposit(cmd.Context(), address, amount)
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "print ledger balances, nonces and governance configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, db, err := openHost()
			if err != nil {
				return err
			}
			defer db.Close()
			rec, err := h.Record()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "initialized: %v\n", rec.Initialized)
			if rec.Governance != nil {
				fmt.Fprintf(out, "authority: %s\n", rec.Governance.Authority)
				mode := rec.Governance.FeeMode
				if mode.Kind == ledger.FeeModePercent {
					fmt.Fprintf(out, "fee: %d bp\n", mode.BasisPoints)
				} else {
					fmt.Fprintf(out, "fee: fixed %d\n", mode.Amount)
				}
				for token, allowed := range rec.Governance.AllowedTokens {
					fmt.Fprintf(out, "token %s allowed=%v\n", token, allowed)
				}
			}
			for consumer, balance := range rec.Consumers {
				fmt.Fprintf(out, "consumer %s balance=%d nonce=%d\n",
					consumer, balance, rec.NextNonce(consumer))
			}
			for executor, earned := range rec.Executors {
				fmt.Fprintf(out, "executor %s earned=%d\n", executor, earned)
			}
			return nil
		},
	}
}
