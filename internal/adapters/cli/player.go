package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	appplayer "github.com/andrescamacho/fleetd/internal/application/player"
	"github.com/andrescamacho/fleetd/internal/infrastructure/config"
)

// NewPlayerCommand builds the player command group. These run against the
// local database and the remote API directly, so they work before the
// daemon is up.
func NewPlayerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Manage registered agents",
	}

	cmd.AddCommand(
		newPlayerRegisterCommand(),
		newPlayerListCommand(),
		newPlayerUseCommand(),
	)
	return cmd
}

func newPlayerUseCommand() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "use [player-id|agent-symbol]",
		Short: "Set the default player for future commands",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := config.NewUserConfigHandler()
			if err != nil {
				return err
			}

			if clear {
				if err := handler.ClearDefaults(); err != nil {
					return err
				}
				fmt.Println("cleared default player")
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("give a player ID or agent symbol, or --clear")
			}

			if id, err := strconv.Atoi(args[0]); err == nil {
				if err := handler.SetDefaultPlayer(id); err != nil {
					return err
				}
			} else if err := handler.SetDefaultAgent(args[0]); err != nil {
				return err
			}
			fmt.Printf("default saved to %s\n", handler.GetConfigPath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "forget the stored default")
	return cmd
}

func newPlayerRegisterCommand() *cobra.Command {
	var (
		faction string
		token   string
	)

	cmd := &cobra.Command{
		Use:   "register <agent-symbol>",
		Short: "Register a new agent or adopt an existing token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			env, err := openLocal()
			if err != nil {
				return err
			}
			defer env.Close()

			handler := appplayer.NewRegisterPlayerHandler(env.playerRepo, env.client)
			response, err := handler.Handle(ctx, &appplayer.RegisterPlayerCommand{
				AgentSymbol: args[0],
				Faction:     faction,
				Token:       token,
			})
			if err != nil {
				return err
			}

			record := response.(*appplayer.RegisterPlayerResponse).Player
			fmt.Printf("registered %s as player %d (token stored)\n", record.AgentSymbol, record.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&faction, "faction", "f", "", "starting faction for fresh registrations")
	cmd.Flags().StringVar(&token, "token", "", "adopt an already-issued API token instead of registering")
	return cmd
}

func newPlayerListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			env, err := openLocal()
			if err != nil {
				return err
			}
			defer env.Close()

			handler := appplayer.NewListPlayersHandler(env.playerRepo)
			response, err := handler.Handle(ctx, &appplayer.ListPlayersQuery{})
			if err != nil {
				return err
			}

			w := newTabWriter()
			fmt.Fprintln(w, "ID\tAGENT\tCREDITS\tLAST ACTIVE")
			for _, record := range response.(*appplayer.ListPlayersResponse).Players {
				lastActive := "-"
				if !record.LastActive.IsZero() {
					lastActive = record.LastActive.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", record.ID, record.AgentSymbol, record.Credits, lastActive)
			}
			return w.Flush()
		},
	}
}
