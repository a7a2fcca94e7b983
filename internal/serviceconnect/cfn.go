package serviceconnect

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/cfn"
)

// CustomResourceFunction adapts h to the aws-lambda-go CloudFormation
// custom resource contract. Wrap it with cfn.LambdaWrap to have the result
// posted back to CloudFormation.
func (h *Handler) CustomResourceFunction() cfn.CustomResourceFunction {
	return func(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
		resp, err := h.Handle(ctx, FromCFN(event))
		if err != nil {
			return event.PhysicalResourceID, nil, err
		}

		physicalID := resp.PhysicalResourceID
		if physicalID == "" {
			physicalID = event.PhysicalResourceID
		}

		var data map[string]interface{}
		if len(resp.Data) > 0 {
			data = make(map[string]interface{}, len(resp.Data))
			for k, v := range resp.Data {
				data[k] = v
			}
		}
		return physicalID, data, nil
	}
}

// FromCFN converts a CloudFormation event. Property values that are not
// strings are formatted with fmt.Sprint.
func FromCFN(event cfn.Event) Event {
	props := make(map[string]string, len(event.ResourceProperties))
	for k, v := range event.ResourceProperties {
		switch val := v.(type) {
		case string:
			props[k] = val
		case nil:
		default:
			props[k] = fmt.Sprint(val)
		}
	}
	return Event{
		RequestType:        RequestType(event.RequestType),
		ResourceProperties: props,
		PhysicalResourceID: event.PhysicalResourceID,
	}
}
