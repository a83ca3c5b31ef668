/*
Package authsdk provides the wire types and a client SDK for the identity
service.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (send code, register, login,
    refresh, health probes) and the creation of sessions.
  - Session: authenticated operations with automatic token refresh.

	client := authsdk.NewSDKClient("https://api.example.com")

	// Request a login code
	err := client.SendCode(ctx, authsdk.SendCodeRequest{Phone: "13800000001", Type: "LOGIN"})

	// Log in with the code to create a session
	session, err := client.LoginSession(ctx, authsdk.LoginRequest{
		Phone:            "13800000001",
		VerificationCode: "123456",
	})

	// Authenticated calls refresh the access token when it is about to expire
	me, err := session.Me(ctx)
	err = session.Logout(ctx)

# Envelope

Every success body is wrapped as {"code":200,"message":"success","data":...}.
Failures carry {"code","message"} and, for validation failures, a field to
message map under "data". The SDK unwraps these into values and *APIError.

# Validation

Request types expose Validate, which returns every failing field at once.
The service runs the same rules before any business logic.
*/
package authsdk
