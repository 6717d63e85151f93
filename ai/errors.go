// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import "errors"

var (
	// ErrRateLimited is returned when the provider throttled the request (HTTP 429).
	ErrRateLimited = errors.New("provider rate limit exceeded")

	// ErrProviderStatus is returned for any other client or server error status.
	ErrProviderStatus = errors.New("provider returned error status")

	// ErrTransport is returned when the request could not be sent or the response not read.
	ErrTransport = errors.New("provider request failed")

	// ErrMalformedResponse is returned when the response lacks a candidate, content or text part.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrUnknownProvider is returned when no provider is registered under a name.
	ErrUnknownProvider = errors.New("unknown provider")
)
