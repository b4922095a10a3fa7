/*
Package invitesdk is the client SDK and wire format of the cliq invite
service.

# SDKClient vs Session

  - SDKClient: public endpoints (health, approval links, approval requests
    from a signed-out child)
  - Session: endpoints that need a bearer token issued by the auth service

	client := invitesdk.NewSDKClient("https://cliq.example.com")

	// A parent opens the approval link from their email.
	approval, err := client.GetApproval(ctx, token)
	res, err := client.RespondApproval(ctx, invitesdk.RespondApprovalRequest{
		Token:  token,
		Action: invitesdk.ActionApprove,
	})

	// Signed in as the parent, create the child account.
	session := client.NewSession(accessToken)
	child, err := session.ProvisionChild(ctx, invitesdk.ProvisionChildRequest{
		Username:      "sam",
		Password:      "correct horse",
		ApprovalToken: token,
	})

# Errors

Every non-2xx response is returned as *APIError carrying the HTTP status and
the reason code:

	var apiErr *invitesdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == invitesdk.CodeExpired {
		// show the "link expired" page
	}
*/
package invitesdk
