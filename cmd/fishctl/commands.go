package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	dispatchapp "github.com/fishfarm/backend/internal/application/dispatch"
	inventoryapp "github.com/fishfarm/backend/internal/application/inventory"
	storageapp "github.com/fishfarm/backend/internal/application/storage"
	transferapp "github.com/fishfarm/backend/internal/application/transfer"
	"github.com/fishfarm/backend/internal/domain/sizing"
	"github.com/fishfarm/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type cli struct {
	open     appOpener
	logLevel string
	operator string

	// classifier loads the size bands for commands that need no database
	classifier func() (*sizing.Classifier, error)
}

func newRootCmd(open appOpener) *cobra.Command {
	c := &cli{
		open: open,
		classifier: func() (*sizing.Classifier, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			return classifierFor(cfg.Sizing)
		},
	}
	return c.rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fishctl",
		Short:         "Fish farm inventory operations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&c.operator, "operator", "", "Operator recorded on requests, approvals and receipts")

	cmd.AddCommand(
		c.classifyCmd(),
		c.locationsCmd(),
		c.summaryCmd(),
		c.transferCmd(),
		c.reconcileCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "fishctl %s\n", version)
			},
		},
	)
	return cmd
}

// withApp opens the app for the duration of fn
func (c *cli) withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, closeFn, err := c.open(cmd.Context(), c.logLevel)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(a)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", kind, raw, err)
	}
	return id, nil
}

func (c *cli) classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <grams>...",
		Short: "Print the size class of each weight",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier, err := c.classifier()
			if err != nil {
				return err
			}
			bands := classifier.Bands()
			for _, raw := range args {
				w, err := decimal.NewFromString(raw)
				if err != nil {
					return fmt.Errorf("invalid weight %q: %w", raw, err)
				}
				class, err := classifier.Classify(w)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", w.String(), class, bands[class].Label)
			}
			return nil
		},
	}
}

func (c *cli) locationsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "locations", Short: "Manage storage locations"}

	var status, locType string
	list := &cobra.Command{
		Use:   "list",
		Short: "List storage locations with live usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(a *app) error {
				locations, _, err := a.locations.List(cmd.Context(), storageapp.LocationListFilter{
					Status:   status,
					Type:     locType,
					PageSize: 100,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, locations)
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "Filter by status")
	list.Flags().StringVar(&locType, "type", "", "Filter by location type")

	var createType, capacity string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a storage location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capacityKg, err := decimal.NewFromString(capacity)
			if err != nil {
				return fmt.Errorf("invalid --capacity-kg %q: %w", capacity, err)
			}
			return c.withApp(cmd, func(a *app) error {
				loc, err := a.locations.Create(cmd.Context(), storageapp.CreateLocationRequest{
					Name:         args[0],
					LocationType: createType,
					CapacityKg:   capacityKg,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, loc)
			})
		},
	}
	create.Flags().StringVar(&createType, "type", "cold_storage", "cold_storage, freezer, ambient or processing_area")
	create.Flags().StringVar(&capacity, "capacity-kg", "", "Capacity in kilograms")
	_ = create.MarkFlagRequired("capacity-kg")

	setStatus := &cobra.Command{
		Use:   "status <id> <active|maintenance|inactive>",
		Short: "Change the status of a location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("location", args[0])
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(a *app) error {
				loc, err := a.locations.SetStatus(cmd.Context(), id, storageapp.UpdateStatusRequest{Status: args[1]})
				if err != nil {
					return err
				}
				return printJSON(cmd, loc)
			})
		},
	}

	cmd.AddCommand(list, create, setStatus)
	return cmd
}

func (c *cli) summaryCmd() *cobra.Command {
	var location string
	var sizeClass int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize stock by location and size class",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter inventoryapp.SummaryFilter
			if location != "" {
				id, err := parseID("location", location)
				if err != nil {
					return err
				}
				filter.LocationID = &id
			}
			if cmd.Flags().Changed("size-class") {
				filter.SizeClass = &sizeClass
			}
			return c.withApp(cmd, func(a *app) error {
				rows, err := a.inventory.Summarize(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return printJSON(cmd, rows)
			})
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "Restrict to one location id")
	cmd.Flags().IntVar(&sizeClass, "size-class", 0, "Restrict to one size class")
	return cmd
}

func (c *cli) transferCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "transfer", Short: "Request and process stock transfers"}

	var from, to, weight string
	var sizeClass int
	var quantity int64
	request := &cobra.Command{
		Use:   "request",
		Short: "Request a transfer between two locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fromID, err := parseID("source location", from)
			if err != nil {
				return err
			}
			toID, err := parseID("destination location", to)
			if err != nil {
				return err
			}
			weightKg, err := decimal.NewFromString(weight)
			if err != nil {
				return fmt.Errorf("invalid --weight-kg %q: %w", weight, err)
			}
			return c.withApp(cmd, func(a *app) error {
				t, err := a.transfers.Request(cmd.Context(), transferapp.RequestTransferRequest{
					FromStorageID: fromID,
					ToStorageID:   toID,
					SizeClass:     sizeClass,
					Quantity:      quantity,
					WeightKg:      weightKg,
					RequestedBy:   c.operator,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, t)
			})
		},
	}
	request.Flags().StringVar(&from, "from", "", "Source location id")
	request.Flags().StringVar(&to, "to", "", "Destination location id")
	request.Flags().IntVar(&sizeClass, "size-class", 0, "Size class to move")
	request.Flags().Int64Var(&quantity, "quantity", 0, "Pieces to move")
	request.Flags().StringVar(&weight, "weight-kg", "", "Declared weight in kilograms")
	for _, f := range []string{"from", "to", "quantity", "weight-kg"} {
		_ = request.MarkFlagRequired(f)
	}

	byID := func(use, short string, fn func(cmd *cobra.Command, a *app, id uuid.UUID) (*transferapp.TransferResponse, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("transfer", args[0])
				if err != nil {
					return err
				}
				return c.withApp(cmd, func(a *app) error {
					t, err := fn(cmd, a, id)
					if err != nil {
						return err
					}
					return printJSON(cmd, t)
				})
			},
		}
	}

	approve := byID("approve", "Approve a pending transfer", func(cmd *cobra.Command, a *app, id uuid.UUID) (*transferapp.TransferResponse, error) {
		return a.transfers.Approve(cmd.Context(), id, transferapp.ApproveTransferRequest{ApprovedBy: c.operator})
	})
	complete := byID("complete", "Move the stock of an approved transfer", func(cmd *cobra.Command, a *app, id uuid.UUID) (*transferapp.TransferResponse, error) {
		return a.transfers.Complete(cmd.Context(), id)
	})
	get := byID("get", "Show a transfer", func(cmd *cobra.Command, a *app, id uuid.UUID) (*transferapp.TransferResponse, error) {
		return a.transfers.Get(cmd.Context(), id)
	})

	var reason string
	reject := byID("reject", "Reject a pending or approved transfer", func(cmd *cobra.Command, a *app, id uuid.UUID) (*transferapp.TransferResponse, error) {
		return a.transfers.Reject(cmd.Context(), id, transferapp.RejectTransferRequest{Reason: reason})
	})
	reject.Flags().StringVar(&reason, "reason", "", "Why the transfer is rejected")
	_ = reject.MarkFlagRequired("reason")

	cmd.AddCommand(request, approve, complete, reject, get)
	return cmd
}

func (c *cli) reconcileCmd() *cobra.Command {
	var lines []string
	cmd := &cobra.Command{
		Use:   "reconcile <dispatch-id>",
		Short: "Record what an outlet received and report discrepancies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("dispatch", args[0])
			if err != nil {
				return err
			}
			received := make([]dispatchapp.ReceivedLineRequest, 0, len(lines))
			for _, raw := range lines {
				line, err := parseReceivedLine(raw)
				if err != nil {
					return err
				}
				received = append(received, line)
			}
			return c.withApp(cmd, func(a *app) error {
				r, err := a.dispatch.Reconcile(cmd.Context(), id, dispatchapp.ReconcileRequest{
					Lines:      received,
					ReceivedBy: c.operator,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, r)
			})
		},
	}
	cmd.Flags().StringArrayVar(&lines, "line", nil, "Received line as size:pieces:kg, repeatable")
	return cmd
}

// parseReceivedLine parses "size:pieces:kg", e.g. "3:120:58.4"
func parseReceivedLine(raw string) (dispatchapp.ReceivedLineRequest, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return dispatchapp.ReceivedLineRequest{}, fmt.Errorf("invalid --line %q: want size:pieces:kg", raw)
	}
	sizeClass, err := strconv.Atoi(parts[0])
	if err != nil {
		return dispatchapp.ReceivedLineRequest{}, fmt.Errorf("invalid size class in %q: %w", raw, err)
	}
	pieces, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return dispatchapp.ReceivedLineRequest{}, fmt.Errorf("invalid pieces in %q: %w", raw, err)
	}
	weightKg, err := decimal.NewFromString(parts[2])
	if err != nil {
		return dispatchapp.ReceivedLineRequest{}, fmt.Errorf("invalid weight in %q: %w", raw, err)
	}
	return dispatchapp.ReceivedLineRequest{SizeClass: sizeClass, Pieces: pieces, WeightKg: weightKg}, nil
}
