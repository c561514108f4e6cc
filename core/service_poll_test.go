package core

import (
	"context"
	"testing"
)

func TestService_Poll_NormalizesEachItem(t *testing.T) {
	api := newFakeRemoteAPI()
	api.pollResponse = []any{
		map[string]any{"leadId": "L1", "timestamp": float64(1700000000)},
		"heartbeat",
	}
	api.leadResponse = map[string]any{"_id": "L1"}
	svc, _ := newTestService(api)

	events, err := svc.Poll(context.Background(), PollRequest{CampaignID: " T9 ", Topic: TopicNewLead, IncludeLeadDetails: true})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected two events, got %#v", events)
	}
	if events[0][FieldTimestampFormatted] != "2023-11-14T22:13:20.000Z" {
		t.Fatalf("expected formatted timestamp, got %#v", events[0])
	}
	if _, ok := events[0][FieldLeadDetails]; !ok {
		t.Fatalf("expected lead details on first event")
	}
	if events[1]["value"] != "heartbeat" {
		t.Fatalf("expected non-object items to be wrapped, got %#v", events[1])
	}
	if len(api.pollCalls) != 1 || api.pollCalls[0] != "T9/newLead" {
		t.Fatalf("unexpected poll calls %#v", api.pollCalls)
	}
}

func TestService_Poll_RejectsPlaceholderCampaign(t *testing.T) {
	api := newFakeRemoteAPI()
	svc, _ := newTestService(api)

	_, err := svc.Poll(context.Background(), PollRequest{CampaignID: PlaceholderNoCampaignsFound, Topic: TopicNewLead})
	if !IsInvalidConfiguration(err) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
	want := "Please select a valid campaign. Make sure to select a customer first, then choose a campaign from the dropdown."
	if ErrorMessage(err) != want {
		t.Fatalf("unexpected message %q", ErrorMessage(err))
	}
	if api.networkCalls() != 0 {
		t.Fatalf("expected no network calls")
	}
}

func TestService_SchedulePoll_EnqueuesDedupedJob(t *testing.T) {
	enqueuer := &recordingEnqueuer{}
	svc, _ := newTestService(newFakeRemoteAPI(), WithJobEnqueuer(enqueuer))

	msg, err := svc.SchedulePoll(context.Background(), PollRequest{CampaignID: "T9", Topic: TopicUpdateLead}, "")
	if err != nil {
		t.Fatalf("schedule poll: %v", err)
	}
	if len(enqueuer.messages) != 1 || enqueuer.messages[0] != msg {
		t.Fatalf("expected the message to be enqueued")
	}
	if msg.JobID != JobIDWebhookPoll || msg.DedupPolicy != "drop" {
		t.Fatalf("unexpected job message %#v", msg)
	}
	if msg.IdempotencyKey != "leadtable.webhook.poll:T9:updateLead" {
		t.Fatalf("unexpected idempotency key %q", msg.IdempotencyKey)
	}

	req, err := PollRequestFromJob(msg)
	if err != nil {
		t.Fatalf("poll request from job: %v", err)
	}
	if req.CampaignID != "T9" || req.Topic != TopicUpdateLead || req.IncludeLeadDetails {
		t.Fatalf("unexpected round trip %#v", req)
	}
}

func TestService_SchedulePoll_RequiresEnqueuer(t *testing.T) {
	svc, _ := newTestService(newFakeRemoteAPI())
	if _, err := svc.SchedulePoll(context.Background(), PollRequest{CampaignID: "T9", Topic: TopicNewLead}, "k"); err == nil {
		t.Fatalf("expected error without an enqueuer")
	}
}

func TestPollRequestFromJob_RejectsForeignJobs(t *testing.T) {
	if _, err := PollRequestFromJob(&JobExecutionMessage{JobID: "other"}); !IsInvalidConfiguration(err) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
	if _, err := PollRequestFromJob(nil); err == nil {
		t.Fatalf("expected error for nil message")
	}
}
