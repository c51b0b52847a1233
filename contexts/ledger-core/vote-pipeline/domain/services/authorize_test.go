package services

import (
	"errors"
	"testing"

	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
	domainerrors "votary/contexts/ledger-core/vote-pipeline/domain/errors"
)

func directAccount(keypair entities.Keypair) entities.Account {
	return entities.Account{
		Address:   DeriveAddress(keypair.Public),
		PublicKey: keypair.PublicHex(),
		Balance:   1_000,
	}
}

func TestAuthorizeDirectPath(t *testing.T) {
	signer := DeriveKeypair("direct voter")
	account := directAccount(signer)

	plan, err := PolicyEngine{}.Authorize(AuthorizationInput{
		SignerKeypair: signer,
		SenderAccount: &account,
	})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if plan.SenderAccount.Address != account.Address {
		t.Fatalf("plan sender %s, want %s", plan.SenderAccount.Address, account.Address)
	}
	if plan.RequesterPublicKey != "" {
		t.Fatalf("direct plan carries requester key %q", plan.RequesterPublicKey)
	}
	if plan.SecondKeypair != nil {
		t.Fatal("direct plan without second factor should not require a second keypair")
	}
}

func TestAuthorizeDirectSenderUnknown(t *testing.T) {
	_, err := PolicyEngine{}.Authorize(AuthorizationInput{
		SignerKeypair: DeriveKeypair("nobody"),
	})
	if !errors.Is(err, domainerrors.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestAuthorizeDirectSecondFactor(t *testing.T) {
	signer := DeriveKeypair("guarded voter")
	second := DeriveKeypair("second factor")
	account := directAccount(signer)
	account.SecondSignature = true

	t.Run("missing second factor", func(t *testing.T) {
		_, err := PolicyEngine{}.Authorize(AuthorizationInput{
			SignerKeypair: signer,
			SenderAccount: &account,
		})
		if !errors.Is(err, domainerrors.ErrMissingSecondFactor) {
			t.Fatalf("err = %v, want ErrMissingSecondFactor", err)
		}
	})

	t.Run("second factor supplied", func(t *testing.T) {
		plan, err := PolicyEngine{}.Authorize(AuthorizationInput{
			SignerKeypair: signer,
			SecondKeypair: &second,
			SenderAccount: &account,
		})
		if err != nil {
			t.Fatalf("Authorize: %v", err)
		}
		if plan.SecondKeypair == nil {
			t.Fatal("plan dropped the second keypair")
		}
	})

	t.Run("unregistered second key trusted when verification is off", func(t *testing.T) {
		withKey := account
		withKey.SecondPublicKey = DeriveKeypair("registered second").PublicHex()
		_, err := PolicyEngine{}.Authorize(AuthorizationInput{
			SignerKeypair: signer,
			SecondKeypair: &second,
			SenderAccount: &withKey,
		})
		if err != nil {
			t.Fatalf("Authorize: %v", err)
		}
	})

	t.Run("unregistered second key rejected when verification is on", func(t *testing.T) {
		withKey := account
		withKey.SecondPublicKey = DeriveKeypair("registered second").PublicHex()
		_, err := PolicyEngine{VerifySecondPublicKey: true}.Authorize(AuthorizationInput{
			SignerKeypair: signer,
			SecondKeypair: &second,
			SenderAccount: &withKey,
		})
		if !errors.Is(err, domainerrors.ErrInvalidSecondFactor) {
			t.Fatalf("err = %v, want ErrInvalidSecondFactor", err)
		}
	})

	t.Run("matching second key passes verification", func(t *testing.T) {
		withKey := account
		withKey.SecondPublicKey = second.PublicHex()
		_, err := PolicyEngine{VerifySecondPublicKey: true}.Authorize(AuthorizationInput{
			SignerKeypair: signer,
			SecondKeypair: &second,
			SenderAccount: &withKey,
		})
		if err != nil {
			t.Fatalf("Authorize: %v", err)
		}
	})
}

func TestDelegatedPathSelection(t *testing.T) {
	signer := DeriveKeypair("group member")
	engine := PolicyEngine{}

	if engine.Delegated(AuthorizationInput{SignerKeypair: signer}) {
		t.Fatal("empty target must select the direct path")
	}
	if engine.Delegated(AuthorizationInput{
		SignerKeypair:   signer,
		TargetPublicKey: signer.PublicHex(),
	}) {
		t.Fatal("target equal to the signer key must select the direct path")
	}
	if !engine.Delegated(AuthorizationInput{
		SignerKeypair:   signer,
		TargetPublicKey: DeriveKeypair("the group").PublicHex(),
	}) {
		t.Fatal("distinct target must select the delegated path")
	}
}

func TestAuthorizeDelegatedPath(t *testing.T) {
	member := DeriveKeypair("authorized member")
	group := DeriveKeypair("group account")

	target := entities.Account{
		Address:         DeriveAddress(group.Public),
		PublicKey:       group.PublicHex(),
		Multisignatures: []string{member.PublicHex(), DeriveKeypair("other member").PublicHex()},
	}
	requester := directAccount(member)

	plan, err := PolicyEngine{}.Authorize(AuthorizationInput{
		SignerKeypair:    member,
		TargetPublicKey:  group.PublicHex(),
		TargetAccount:    &target,
		RequesterAccount: &requester,
	})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if plan.SenderAccount.Address != target.Address {
		t.Fatalf("plan sender %s, want the group account %s", plan.SenderAccount.Address, target.Address)
	}
	if plan.RequesterPublicKey != member.PublicHex() {
		t.Fatalf("plan requester %s, want the member key", plan.RequesterPublicKey)
	}
	if !plan.Delegated() {
		t.Fatal("delegated plan not marked as delegated")
	}
}

func TestAuthorizeDelegatedViolations(t *testing.T) {
	member := DeriveKeypair("authorized member")
	outsider := DeriveKeypair("outsider")
	group := DeriveKeypair("group account")

	target := entities.Account{
		Address:         DeriveAddress(group.Public),
		PublicKey:       group.PublicHex(),
		Multisignatures: []string{member.PublicHex()},
	}
	requester := directAccount(member)

	tests := []struct {
		name  string
		input AuthorizationInput
		want  error
	}{
		{
			name: "target unknown",
			input: AuthorizationInput{
				SignerKeypair:    member,
				TargetPublicKey:  group.PublicHex(),
				RequesterAccount: &requester,
			},
			want: domainerrors.ErrTargetNotFound,
		},
		{
			name: "target has no signer group",
			input: AuthorizationInput{
				SignerKeypair:   member,
				TargetPublicKey: group.PublicHex(),
				TargetAccount: &entities.Account{
					Address:   target.Address,
					PublicKey: target.PublicKey,
				},
				RequesterAccount: &requester,
			},
			want: domainerrors.ErrNotMultisigAccount,
		},
		{
			name: "requester unknown",
			input: AuthorizationInput{
				SignerKeypair:   member,
				TargetPublicKey: group.PublicHex(),
				TargetAccount:   &target,
			},
			want: domainerrors.ErrRequesterNotFound,
		},
		{
			name: "signer outside the group",
			input: AuthorizationInput{
				SignerKeypair:    outsider,
				TargetPublicKey:  group.PublicHex(),
				TargetAccount:    &target,
				RequesterAccount: &requester,
			},
			want: domainerrors.ErrUnauthorizedSigner,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PolicyEngine{}.Authorize(tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestAuthorizeDelegatedRejectsGroupSelfRequest(t *testing.T) {
	group := DeriveKeypair("group account")
	other := DeriveKeypair("unrelated target")

	// The group key itself appears in the signer set and signs for a target
	// whose member list includes it. The group account can never be its own
	// requester.
	target := entities.Account{
		Address:         DeriveAddress(other.Public),
		PublicKey:       group.PublicHex(),
		Multisignatures: []string{group.PublicHex()},
	}
	requester := directAccount(group)

	_, err := PolicyEngine{}.Authorize(AuthorizationInput{
		SignerKeypair:    group,
		TargetPublicKey:  other.PublicHex(),
		TargetAccount:    &target,
		RequesterAccount: &requester,
	})
	if !errors.Is(err, domainerrors.ErrInvalidRequester) {
		t.Fatalf("err = %v, want ErrInvalidRequester", err)
	}
}

func TestAuthorizeDelegatedRequesterSecondFactor(t *testing.T) {
	member := DeriveKeypair("guarded member")
	group := DeriveKeypair("group account")

	target := entities.Account{
		Address:         DeriveAddress(group.Public),
		PublicKey:       group.PublicHex(),
		Multisignatures: []string{member.PublicHex()},
	}
	requester := directAccount(member)
	requester.SecondSignature = true

	_, err := PolicyEngine{}.Authorize(AuthorizationInput{
		SignerKeypair:    member,
		TargetPublicKey:  group.PublicHex(),
		TargetAccount:    &target,
		RequesterAccount: &requester,
	})
	if !errors.Is(err, domainerrors.ErrMissingSecondFactor) {
		t.Fatalf("err = %v, want ErrMissingSecondFactor", err)
	}

	second := DeriveKeypair("member second factor")
	plan, err := PolicyEngine{}.Authorize(AuthorizationInput{
		SignerKeypair:    member,
		SecondKeypair:    &second,
		TargetPublicKey:  group.PublicHex(),
		TargetAccount:    &target,
		RequesterAccount: &requester,
	})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if plan.SecondKeypair == nil {
		t.Fatal("plan dropped the requester's second keypair")
	}
}
