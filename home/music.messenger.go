package home

import (
	"context"
	"errors"
	"net/http"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/kyvex/proc"
)

// RestMessenger sends and deletes channel messages over the Discord REST API.
type RestMessenger struct {
	rest rest.Rest
}

func NewRestMessenger(r rest.Rest) *RestMessenger {
	return &RestMessenger{rest: r}
}

func (m *RestMessenger) CreateMessage(ctx context.Context, channelID snowflake.ID, msg discord.MessageCreate) (snowflake.ID, error) {
	created, err := m.rest.CreateMessage(channelID, msg, rest.WithCtx(ctx))
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

// DeleteMessage maps a 404 to proc.ErrMessageNotFound.
func (m *RestMessenger) DeleteMessage(ctx context.Context, channelID, messageID snowflake.ID) error {
	err := m.rest.DeleteMessage(channelID, messageID, rest.WithCtx(ctx))
	if err == nil {
		return nil
	}
	var restErr *rest.Error
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return proc.ErrMessageNotFound
	}
	return err
}
