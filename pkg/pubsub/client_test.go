package pubsub

import (
	"testing"

	"github.com/angelmondragon/leatherworks-erp/pkg/config"
)

func TestSubscriptionNamesSkipsBlank(t *testing.T) {
	if got := subscriptionNames(config.PubSubConfig{DomainSubscription: "  "}); len(got) != 0 {
		t.Fatalf("expected no subscriptions, got %v", got)
	}
	got := subscriptionNames(config.PubSubConfig{DomainSubscription: " lw-domain-events-worker "})
	if len(got) != 1 || got[0] != "lw-domain-events-worker" {
		t.Fatalf("unexpected subscriptions %v", got)
	}
}

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "tannery-prod"}
	if got := c.subscriptionResourceName("lw-domain-events-worker"); got != "projects/tannery-prod/subscriptions/lw-domain-events-worker" {
		t.Fatalf("unexpected subscription name %q", got)
	}
	full := "projects/other/subscriptions/x"
	if got := c.subscriptionResourceName(full); got != full {
		t.Fatalf("expected full name untouched, got %q", got)
	}
	if got := c.topicResourceName("lw-domain-events"); got != "projects/tannery-prod/topics/lw-domain-events" {
		t.Fatalf("unexpected topic name %q", got)
	}
	if got := (&Client{}).topicResourceName("t"); got != "" {
		t.Fatalf("expected empty without project, got %q", got)
	}
}
