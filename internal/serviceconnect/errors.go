package serviceconnect

import "errors"

var (
	ErrUnsupportedRequest        = errors.New("unsupported request type")
	ErrMissingProperty           = errors.New("missing resource property")
	ErrServiceNotFound           = errors.New("service not found")
	ErrNoDeployments             = errors.New("service has no deployments")
	ErrNoServiceConnectResources = errors.New("service has no service connect resources")
)
