package clients

import (
	"context"
	"fmt"

	ws "controleisp-backend/internal/transport/websocket"
)

type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

func (c *WebSocketClient) NotifyExportProgress(
	ctx context.Context,
	providerID string,
	exportID string,
	progress float64,
	stage string,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_provider_of_progress_export#%s", providerID)
	data := map[string]interface{}{
		"id":       exportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	c.hub.Broadcast(providerID, &ws.Message{
		Type:    "export_progress",
		Channel: channel,
		Data:    data,
	})
	return nil
}

func (c *WebSocketClient) NotifyExportComplete(
	ctx context.Context,
	providerID string,
	exportID string,
	url string,
	filename string,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_provider_when_export_complete#%s", providerID)
	c.hub.Broadcast(providerID, &ws.Message{
		Type:    "export_complete",
		Channel: channel,
		Data: map[string]interface{}{
			"id":          exportID,
			"url":         url,
			"filename":    filename,
			"provider_id": providerID,
		},
	})
	return nil
}

func (c *WebSocketClient) NotifyExportFailed(ctx context.Context, providerID string, exportID string, errMsg string) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_provider_when_export_failed#%s", providerID)
	c.hub.Broadcast(providerID, &ws.Message{
		Type:    "export_failed",
		Channel: channel,
		Data: map[string]interface{}{
			"id":          exportID,
			"message":     errMsg,
			"provider_id": providerID,
		},
	})
	return nil
}

// NotifySearchHit tells a record's owner that some other provider
// searched for, and found, one of its delinquency records. The search
// term itself is never forwarded.
func (c *WebSocketClient) NotifySearchHit(ctx context.Context, ownerProviderID, clientID, mode string) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_provider_of_search_hit#%s", ownerProviderID)
	c.hub.Broadcast(ownerProviderID, &ws.Message{
		Type:    "cross_provider_hit",
		Channel: channel,
		Data: map[string]interface{}{
			"client_id": clientID,
			"mode":      mode,
		},
	})
	return nil
}
