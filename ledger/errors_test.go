// errors_test.go - Tests for revert reason and submit error classification
// Run with: go test ./...

package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyReason(t *testing.T) {
	cases := []struct {
		raw  string
		want Reason
	}{
		{"execution reverted: Already voted", ReasonAlreadyVoted},
		{"Voting is not active", ReasonVotingNotActive},
		{"Voter is already registered", ReasonAlreadyRegistered},
		{"Not a registered voter", ReasonNotRegistered},
		{"Voter not registered", ReasonNotRegistered},
		{"No vote to revoke", ReasonNoVoteToRevoke},
		{"something exotic", ReasonUnknown},
		{"", ReasonUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyReason(tc.raw), "raw: %q", tc.raw)
	}
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "already voted", ReasonAlreadyVoted.String())
	assert.Equal(t, "unknown", ReasonUnknown.String())
}

func TestClassifySubmitError(t *testing.T) {
	cases := []struct {
		msg  string
		want error
	}{
		{"insufficient funds for gas * price + value", ErrInsufficientFunds},
		{"unknown account", ErrSigner},
		{"authentication needed: password or unlock", ErrSigner},
		{"dial tcp 127.0.0.1:7545: connect: connection refused", ErrUnreachable},
		{"Post http://node: EOF", ErrUnreachable},
		{"nonce too low", nil},
	}
	for _, tc := range cases {
		got := classifySubmitError(errors.New(tc.msg))
		assert.Equal(t, tc.want, got, "msg: %q", tc.msg)
	}
}

func TestReceiptSucceeded(t *testing.T) {
	ok := Receipt{Status: StatusSuccess}
	assert.True(t, ok.Succeeded())

	bad := Receipt{Status: StatusReverted, RevertReason: "Already voted"}
	assert.False(t, bad.Succeeded())
}
