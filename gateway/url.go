// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package gateway

import (
	"fmt"
	"net/url"

	"github.com/panekj/serenity/gateway/compressor"
)

// GatewayVersion is the version of the gateway protocol spoken by this
// package.
const GatewayVersion = 10

// BuildGatewayURL builds the URL to connect to from the base URL handed
// out by the HTTP API, fixing the protocol version and encoding and
// appending the transport compression parameter for mode.
//
// Any query already present on base is discarded.
func BuildGatewayURL(base string, mode compressor.Mode) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBuildingURL, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrBuildingURL, u.Scheme)
	}
	u.RawQuery = fmt.Sprintf("v=%d&encoding=json", GatewayVersion)
	return u.String() + mode.QueryParameter(), nil
}
