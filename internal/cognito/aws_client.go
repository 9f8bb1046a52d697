package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	"github.com/jaekwang-park/todolist/internal/model"
)

// Options configures an AWSClient. Endpoint overrides the regional endpoint
// and is meant for local emulators and tests. When AccessKeyID is empty the
// default AWS credential chain is used for admin calls.
type Options struct {
	Region          string
	UserPoolID      string
	ClientID        string
	ClientSecret    string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// AWSClient implements Client and Admin using the AWS SDK v2.
type AWSClient struct {
	cip          *cip.Client
	userPoolID   string
	clientID     string
	clientSecret string
}

func NewAWSClient(ctx context.Context, opts Options) (*AWSClient, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
		// Failures surface to the caller as-is; nothing is retried.
		awsconfig.WithRetryMaxAttempts(1),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := cip.NewFromConfig(cfg, func(o *cip.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return &AWSClient{
		cip:          client,
		userPoolID:   opts.UserPoolID,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
	}, nil
}

// ComputeSecretHash returns Base64(HMAC-SHA256(clientSecret, username+clientID)),
// the value app clients with a secret must send alongside the username.
func ComputeSecretHash(username, clientID, clientSecret string) string {
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *AWSClient) secretHash(username string) *string {
	if c.clientSecret == "" {
		return nil
	}
	h := ComputeSecretHash(username, c.clientID, c.clientSecret)
	return &h
}

func (c *AWSClient) GetUser(ctx context.Context, accessToken string) (model.User, error) {
	out, err := c.cip.GetUser(ctx, &cip.GetUserInput{
		AccessToken: &accessToken,
	})
	if err != nil {
		return model.User{}, mapAWSError(err)
	}
	return userFromAttributes(aws.ToString(out.Username), out.UserAttributes), nil
}

func (c *AWSClient) LookupUser(ctx context.Context, userID string) (model.User, error) {
	out, err := c.cip.AdminGetUser(ctx, &cip.AdminGetUserInput{
		UserPoolId: &c.userPoolID,
		Username:   &userID,
	})
	if err != nil {
		return model.User{}, mapAWSError(err)
	}
	u := userFromAttributes(aws.ToString(out.Username), out.UserAttributes)
	if out.UserCreateDate != nil {
		u.CreatedAt = *out.UserCreateDate
	}
	return u, nil
}

func (c *AWSClient) SetUserPassword(ctx context.Context, userID, password string) error {
	_, err := c.cip.AdminSetUserPassword(ctx, &cip.AdminSetUserPasswordInput{
		UserPoolId: &c.userPoolID,
		Username:   &userID,
		Password:   &password,
		Permanent:  true,
	})
	if err != nil {
		return mapAWSError(err)
	}
	return nil
}

func (c *AWSClient) SignUp(ctx context.Context, input SignUpInput) (SignUpOutput, error) {
	out, err := c.cip.SignUp(ctx, &cip.SignUpInput{
		ClientId:   &c.clientID,
		SecretHash: c.secretHash(input.Email),
		Username:   &input.Email,
		Password:   &input.Password,
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: &input.Email},
		},
	})
	if err != nil {
		return SignUpOutput{}, mapAWSError(err)
	}
	delivery := ""
	if out.CodeDeliveryDetails != nil {
		delivery = string(out.CodeDeliveryDetails.DeliveryMedium)
	}
	return SignUpOutput{
		UserSub:      aws.ToString(out.UserSub),
		Confirmed:    out.UserConfirmed,
		CodeDelivery: delivery,
	}, nil
}

func (c *AWSClient) ConfirmSignUp(ctx context.Context, input ConfirmSignUpInput) error {
	_, err := c.cip.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         &c.clientID,
		SecretHash:       c.secretHash(input.Email),
		Username:         &input.Email,
		ConfirmationCode: &input.Code,
	})
	if err != nil {
		return mapAWSError(err)
	}
	return nil
}

func (c *AWSClient) ResendConfirmationCode(ctx context.Context, input ResendCodeInput) error {
	_, err := c.cip.ResendConfirmationCode(ctx, &cip.ResendConfirmationCodeInput{
		ClientId:   &c.clientID,
		SecretHash: c.secretHash(input.Email),
		Username:   &input.Email,
	})
	if err != nil {
		return mapAWSError(err)
	}
	return nil
}

func (c *AWSClient) Login(ctx context.Context, input LoginInput) (AuthOutput, error) {
	params := map[string]string{
		"USERNAME": input.Email,
		"PASSWORD": input.Password,
	}
	return c.initiateAuth(ctx, types.AuthFlowTypeUserPasswordAuth, params, input.Email)
}

func (c *AWSClient) RefreshTokens(ctx context.Context, input RefreshInput) (AuthOutput, error) {
	params := map[string]string{
		"REFRESH_TOKEN": input.RefreshToken,
	}
	return c.initiateAuth(ctx, types.AuthFlowTypeRefreshTokenAuth, params, input.Username)
}

func (c *AWSClient) initiateAuth(ctx context.Context, flow types.AuthFlowType, params map[string]string, username string) (AuthOutput, error) {
	if h := c.secretHash(username); h != nil {
		params["SECRET_HASH"] = *h
	}
	out, err := c.cip.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId:       &c.clientID,
		AuthFlow:       flow,
		AuthParameters: params,
	})
	if err != nil {
		return AuthOutput{}, mapAWSError(err)
	}
	// A challenge (MFA, NEW_PASSWORD_REQUIRED) comes back without tokens.
	if out.AuthenticationResult == nil {
		return AuthOutput{}, fmt.Errorf("unsupported auth challenge %q: %w", out.ChallengeName, ErrNotAuthorized)
	}
	r := out.AuthenticationResult
	return AuthOutput{
		IDToken:      aws.ToString(r.IdToken),
		AccessToken:  aws.ToString(r.AccessToken),
		RefreshToken: aws.ToString(r.RefreshToken),
		ExpiresIn:    r.ExpiresIn,
		TokenType:    aws.ToString(r.TokenType),
	}, nil
}

func (c *AWSClient) GlobalSignOut(ctx context.Context, input GlobalSignOutInput) error {
	_, err := c.cip.GlobalSignOut(ctx, &cip.GlobalSignOutInput{
		AccessToken: &input.AccessToken,
	})
	if err != nil {
		return mapAWSError(err)
	}
	return nil
}

// userFromAttributes builds a User from the pool username and attribute list.
// The sub attribute is the stable ID; the username is used when it is absent.
func userFromAttributes(username string, attrs []types.AttributeType) model.User {
	u := model.User{ID: username}
	for _, a := range attrs {
		switch aws.ToString(a.Name) {
		case "sub":
			u.ID = aws.ToString(a.Value)
		case "email":
			u.Email = aws.ToString(a.Value)
		}
	}
	return u
}

// mapAWSError wraps a service error with its sentinel so callers can match
// with errors.Is while Message still reaches the service's own text.
func mapAWSError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("cognito: %w", err)
	}
	if sentinel, ok := sentinels[apiErr.ErrorCode()]; ok {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return fmt.Errorf("cognito %s: %w", apiErr.ErrorCode(), err)
}

var (
	_ Client = (*AWSClient)(nil)
	_ Admin  = (*AWSClient)(nil)
)
