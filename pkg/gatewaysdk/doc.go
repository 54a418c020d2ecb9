/*
Package gatewaysdk provides a client for the grantgate API and the error
type its handlers write.

# Overview

The gateway keeps a user's delegated tokens server-side, behind an opaque
session cookie. A Client carries that cookie in its jar, so the usual flow is:

	client, err := gatewaysdk.NewClient("https://gateway.example.com")

	// Hand the tokens of a completed login to the gateway.
	view, err := client.Establish(ctx, gatewaysdk.EstablishRequest{
		IDToken:      idToken,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    3600,
	})

	// Run the privileged project grant search for an organization the
	// user holds the required role in.
	grants, err := client.GrantedProjects(ctx, orgID)

	// End the session.
	err = client.Logout(ctx)

# Errors

Every non-success response is returned as an *APIError carrying the HTTP
status and the error code from the response body:

	var apiErr *gatewaysdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == gatewaysdk.ErrorCodeAccessDenied {
		// the user lacks the role for this organization
	}
*/
package gatewaysdk
