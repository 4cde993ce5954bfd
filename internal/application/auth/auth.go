package auth

import (
	"context"
	"fmt"
	"reflect"

	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/domain/player"
)

// Context keys for passing authentication data through context
type authContextKey int

const (
	playerTokenKey authContextKey = iota + 1000 // Offset from logger keys
)

// WithPlayerToken injects a player authentication token into the context
func WithPlayerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, playerTokenKey, token)
}

// PlayerTokenFromContext extracts the player authentication token from
// context. Returns an error if no token is present.
func PlayerTokenFromContext(ctx context.Context) (string, error) {
	token, ok := ctx.Value(playerTokenKey).(string)
	if !ok || token == "" {
		return "", fmt.Errorf("player token not found in context")
	}
	return token, nil
}

// PlayerTokenMiddleware resolves the player named by the request (PlayerID
// or AgentSymbol field) and injects that player's API token into the
// context before the handler runs. Requests without either field pass
// through untouched.
func PlayerTokenMiddleware(playerRepo player.PlayerRepository) mediator.Middleware {
	return func(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) (mediator.Response, error) {
		playerID, agentSymbol := extractPlayerIdentifier(request)

		var playerEntity *player.Player
		var err error

		if playerID > 0 {
			playerEntity, err = playerRepo.FindByID(ctx, playerID)
			if err != nil {
				return nil, fmt.Errorf("failed to find player %d: %w", playerID, err)
			}
		} else if agentSymbol != "" {
			playerEntity, err = playerRepo.FindByAgentSymbol(ctx, agentSymbol)
			if err != nil {
				return nil, fmt.Errorf("failed to find player by agent symbol %s: %w", agentSymbol, err)
			}
		}

		if playerEntity != nil {
			ctx = WithPlayerToken(ctx, playerEntity.Token)
		}

		return next(ctx, request)
	}
}

// extractPlayerIdentifier pulls player identification off the request
// struct by field name. Returns (playerID, agentSymbol); zero values mean
// the field is absent.
func extractPlayerIdentifier(request mediator.Request) (int, string) {
	var playerID int
	var agentSymbol string

	requestValue := reflect.ValueOf(request)
	if requestValue.Kind() == reflect.Ptr {
		if requestValue.IsNil() {
			return 0, ""
		}
		requestValue = requestValue.Elem()
	}
	if requestValue.Kind() != reflect.Struct {
		return 0, ""
	}

	if fieldValue := requestValue.FieldByName("PlayerID"); fieldValue.IsValid() {
		switch fieldValue.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			playerID = int(fieldValue.Int())
		case reflect.Ptr:
			if !fieldValue.IsNil() && fieldValue.Elem().Kind() == reflect.Int {
				playerID = int(fieldValue.Elem().Int())
			}
		}
	}

	if fieldValue := requestValue.FieldByName("AgentSymbol"); fieldValue.IsValid() && fieldValue.Kind() == reflect.String {
		agentSymbol = fieldValue.String()
	}

	return playerID, agentSymbol
}
