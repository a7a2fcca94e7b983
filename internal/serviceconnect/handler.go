package serviceconnect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/smithy-go"
)

type RequestType string

const (
	RequestCreate RequestType = "Create"
	RequestUpdate RequestType = "Update"
	RequestDelete RequestType = "Delete"
)

// Resource property keys understood by the handler.
const (
	PropClusterName   = "clusterName"
	PropServiceName   = "serviceName"
	PropDiscoveryName = "discoveryName"
)

// DataServiceArn is the attribute name under which the resolved ARN is
// returned.
const DataServiceArn = "serviceArn"

// Event is one custom resource lifecycle request.
type Event struct {
	RequestType        RequestType
	ResourceProperties map[string]string
	PhysicalResourceID string
}

// Response is the result of a lifecycle request. The zero value is a valid
// Delete response.
type Response struct {
	PhysicalResourceID string
	Data               map[string]string
}

type lookupProps struct {
	clusterName   string
	serviceName   string
	discoveryName string
}

type Handler struct {
	resolver *Resolver
	logger   *slog.Logger
}

func NewHandler(resolver *Resolver, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{resolver: resolver, logger: logger}
}

// Handle dispatches the event on its request type.
func (h *Handler) Handle(ctx context.Context, event Event) (Response, error) {
	h.logger.Debug("event received",
		slog.String("requestType", string(event.RequestType)),
		slog.String("physicalResourceId", event.PhysicalResourceID),
		slog.Any("resourceProperties", event.ResourceProperties),
	)

	switch event.RequestType {
	case RequestCreate:
		return h.onCreate(ctx, event)
	case RequestUpdate:
		return h.onUpdate(ctx, event)
	case RequestDelete:
		return h.onDelete(event)
	default:
		return Response{}, fmt.Errorf("%w: %q", ErrUnsupportedRequest, event.RequestType)
	}
}

func (h *Handler) onCreate(ctx context.Context, event Event) (Response, error) {
	h.logger.Info("creating resource", slog.Any("resourceProperties", event.ResourceProperties))

	props, err := readProps(event.ResourceProperties)
	if err != nil {
		return Response{}, err
	}
	arn, err := h.lookup(ctx, props)
	if err != nil {
		return Response{}, err
	}
	return Response{
		PhysicalResourceID: props.serviceName,
		Data:               map[string]string{DataServiceArn: arn},
	}, nil
}

func (h *Handler) onUpdate(ctx context.Context, event Event) (Response, error) {
	h.logger.Info("updating resource",
		slog.String("physicalResourceId", event.PhysicalResourceID),
		slog.Any("resourceProperties", event.ResourceProperties),
	)

	props, err := readProps(event.ResourceProperties)
	if err != nil {
		return Response{}, err
	}
	arn, err := h.lookup(ctx, props)
	if err != nil {
		return Response{}, err
	}
	return Response{
		PhysicalResourceID: event.PhysicalResourceID,
		Data:               map[string]string{DataServiceArn: arn},
	}, nil
}

func (h *Handler) onDelete(event Event) (Response, error) {
	h.logger.Info("deleting resource", slog.String("physicalResourceId", event.PhysicalResourceID))
	return Response{}, nil
}

func (h *Handler) lookup(ctx context.Context, props lookupProps) (string, error) {
	arn, err := h.resolver.Resolve(ctx, props.clusterName, props.serviceName, props.discoveryName)
	if err != nil {
		attrs := []any{
			slog.String("cluster", props.clusterName),
			slog.String("service", props.serviceName),
			slog.String("error", err.Error()),
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			attrs = append(attrs, slog.String("code", apiErr.ErrorCode()))
		}
		h.logger.Error("service connect lookup failed", attrs...)
		return "", err
	}
	if arn == "" {
		h.logger.Warn("no service connect resource matched",
			slog.String("service", props.serviceName),
			slog.String("discoveryName", props.discoveryName),
		)
	} else {
		h.logger.Info("service connect resource resolved",
			slog.String("service", props.serviceName),
			slog.String("serviceArn", arn),
		)
	}
	return arn, nil
}

func readProps(props map[string]string) (lookupProps, error) {
	p := lookupProps{
		clusterName:   props[PropClusterName],
		serviceName:   props[PropServiceName],
		discoveryName: props[PropDiscoveryName],
	}
	for _, key := range []string{PropClusterName, PropServiceName, PropDiscoveryName} {
		if props[key] == "" {
			return lookupProps{}, fmt.Errorf("%w: %s", ErrMissingProperty, key)
		}
	}
	return p, nil
}
