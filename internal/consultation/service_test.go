package consultation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAgent struct {
	mu            sync.Mutex
	reply         string
	chatErr       error
	diagnosis     Diagnosis
	chatCalls     int
	diagnoseCalls int
	histories     [][]string
	chatGate      chan struct{}
}

func (f *fakeAgent) ChatWithSymptoms(ctx context.Context, message string, history []string) (string, error) {
	if f.chatGate != nil {
		<-f.chatGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls++
	f.histories = append(f.histories, history)
	return f.reply, f.chatErr
}

func (f *fakeAgent) GenerateDiagnosis(ctx context.Context, in DiagnosisInput) Diagnosis {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diagnoseCalls++
	return f.diagnosis
}

type fakeNotifier struct {
	mu      sync.Mutex
	records []Record
	err     error
}

func (f *fakeNotifier) NotifyUrgentReferral(ctx context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return f.err
}

func newTestService(agent *fakeAgent, notifier Notifier) (*service, Repository) {
	return newTestServiceWithStore(agent, notifier, NewMemorySessionStore(time.Hour))
}

func newTestServiceWithStore(agent *fakeAgent, notifier Notifier, store SessionStore) (*service, Repository) {
	repo := NewMemoryRepository()
	svc := NewService(store, repo, agent, notifier, nil, zap.NewNop()).(*service)
	svc.spawn = func(f func()) { f() }
	return svc, repo
}

var errStoreDown = errors.New("redis: connection reset")

// flakyStore answers upcoming saves from a script; a nil entry or an empty
// script lets the save through.
type flakyStore struct {
	*MemorySessionStore
	mu     sync.Mutex
	script []error
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemorySessionStore: NewMemorySessionStore(time.Hour)}
}

func (f *flakyStore) failNext(results ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = results
}

func (f *flakyStore) Save(ctx context.Context, sess *Session) error {
	f.mu.Lock()
	var err error
	if len(f.script) > 0 {
		err, f.script = f.script[0], f.script[1:]
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemorySessionStore.Save(ctx, sess)
}

// walkToVitals drives a fresh session through the first two steps.
func walkToVitals(t *testing.T, svc Service) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	_, err = svc.UpdatePatient(ctx, sess.ID, completePatient())
	require.NoError(t, err)
	_, err = svc.Advance(ctx, sess.ID)
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, sess.ID, "Fever and cough for 3 days")
	require.NoError(t, err)
	got, err := svc.Advance(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, StepVitals, got.Step)
	return sess.ID
}

func hypertensionDiagnosis() Diagnosis {
	return Diagnosis{
		Primary:  PrimaryCondition{Condition: "Hypertension", Confidence: 85},
		Referral: Referral{Urgent: true, Specialist: "Cardiologist", Reason: "BP 190/120"},
		Source:   SourceAI,
	}
}

func TestSendMessage_AppendsReplyAndSymptoms(t *testing.T) {
	agent := &fakeAgent{reply: "How high was the fever?"}
	svc, _ := newTestService(agent, nil)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	got, err := svc.SendMessage(ctx, sess.ID, "Patient reports fever and headache")
	require.NoError(t, err)

	require.Len(t, got.Transcript, 3)
	assert.Equal(t, SenderUser, got.Transcript[1].Sender)
	assert.Equal(t, "Patient reports fever and headache", got.Transcript[1].Text)
	assert.Equal(t, SenderAssistant, got.Transcript[2].Sender)
	assert.Equal(t, "How high was the fever?", got.Transcript[2].Text)
	assert.Equal(t, []string{"Fever", "Headache"}, got.Symptoms)

	// history sent to the model is the transcript before this message
	require.Len(t, agent.histories, 1)
	require.Len(t, agent.histories[0], 1)
	assert.Contains(t, agent.histories[0][0], "assistant: ")

	got, err = svc.SendMessage(ctx, sess.ID, "still has fever")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fever", "Headache"}, got.Symptoms)
	assert.Len(t, got.Transcript, 5)
}

func TestSendMessage_FailureAppendsApology(t *testing.T) {
	agent := &fakeAgent{chatErr: errors.New("network down")}
	svc, _ := newTestService(agent, nil)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	got, err := svc.SendMessage(ctx, sess.ID, "vomiting since morning")
	require.NoError(t, err)
	require.Len(t, got.Transcript, 3)
	assert.Equal(t, ChatApology, got.Transcript[2].Text)
	assert.Equal(t, []string{"Vomiting"}, got.Symptoms)
}

func TestSendMessage_RejectsEmptyAndUnknown(t *testing.T) {
	svc, _ := newTestService(&fakeAgent{}, nil)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, sess.ID, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SendMessage(ctx, uuid.New(), "fever")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSendMessage_SecondInFlightIsBusy(t *testing.T) {
	agent := &fakeAgent{reply: "ok", chatGate: make(chan struct{})}
	svc, _ := newTestService(agent, nil)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.SendMessage(ctx, sess.ID, "fever")
		done <- err
	}()

	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.chatting[sess.ID]
	}, time.Second, 5*time.Millisecond)

	_, err = svc.SendMessage(ctx, sess.ID, "cough")
	assert.ErrorIs(t, err, ErrBusy)

	close(agent.chatGate)
	require.NoError(t, <-done)

	_, err = svc.SendMessage(ctx, sess.ID, "cough")
	assert.NoError(t, err, "flag is cleared once the reply lands")
}

func TestSendMessage_StoreFailureDoesNotLeaveSessionBusy(t *testing.T) {
	store := newFlakyStore()
	agent := &fakeAgent{reply: "noted"}
	svc, _ := newTestServiceWithStore(agent, nil, store)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	store.failNext(errStoreDown)
	_, err = svc.SendMessage(ctx, sess.ID, "fever")
	require.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, svc.chatting)

	got, err := svc.SendMessage(ctx, sess.ID, "fever")
	require.NoError(t, err)
	assert.Len(t, got.Transcript, 3)
	assert.Equal(t, 1, agent.chatCalls)
}

func TestAddSymptom(t *testing.T) {
	svc, _ := newTestService(&fakeAgent{}, nil)
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	got, err := svc.AddSymptom(ctx, sess.ID, "dizziness")
	require.NoError(t, err)
	got, err = svc.AddSymptom(ctx, sess.ID, "Dizziness")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dizziness"}, got.Symptoms)

	_, err = svc.AddSymptom(ctx, sess.ID, "hiccups")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateVitals_NormalizesComorbidities(t *testing.T) {
	svc, _ := newTestService(&fakeAgent{}, nil)
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	got, err := svc.UpdateVitals(ctx, sess.ID, Vitals{
		BloodPressureSystolic: "150",
		Comorbidities:         []string{"diabetes", "Diabetes", "asthma"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Diabetes", "Asthma"}, got.Vitals.Comorbidities)

	_, err = svc.UpdateVitals(ctx, sess.ID, Vitals{Comorbidities: []string{"Gout"}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdvance_EnteringDiagnosisGeneratesOnce(t *testing.T) {
	agent := &fakeAgent{reply: "noted", diagnosis: hypertensionDiagnosis()}
	svc, _ := newTestService(agent, nil)
	ctx := context.Background()

	id := walkToVitals(t, svc)

	_, err := svc.Advance(ctx, id)
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepDiagnosis, got.Step)
	require.NotNil(t, got.Diagnosis)
	assert.Equal(t, "Hypertension", got.Diagnosis.Primary.Condition)
	assert.False(t, got.Generating)

	// going back and forward again keeps the first diagnosis
	agent.diagnosis = Diagnosis{Primary: PrimaryCondition{Condition: "Something else"}}
	_, err = svc.Back(ctx, id)
	require.NoError(t, err)
	_, err = svc.Advance(ctx, id)
	require.NoError(t, err)
	require.NoError(t, svc.GenerateDiagnosis(ctx, id))

	got, err = svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hypertension", got.Diagnosis.Primary.Condition)
	assert.Equal(t, 1, agent.diagnoseCalls)
}

func TestGenerateDiagnosis_SkippedWhileGenerating(t *testing.T) {
	agent := &fakeAgent{diagnosis: hypertensionDiagnosis()}
	svc, _ := newTestService(agent, nil)
	ctx := context.Background()

	sess := NewSession(time.Now())
	sess.Step = StepDiagnosis
	require.NoError(t, svc.store.Save(ctx, sess))
	svc.generating[sess.ID] = true

	require.NoError(t, svc.GenerateDiagnosis(ctx, sess.ID))
	assert.Equal(t, 0, agent.diagnoseCalls)
}

func TestGenerateDiagnosis_StaleGeneratingFlagIsRetried(t *testing.T) {
	agent := &fakeAgent{diagnosis: hypertensionDiagnosis()}
	svc, _ := newTestService(agent, nil)
	ctx := context.Background()

	sess := NewSession(time.Now())
	sess.Step = StepDiagnosis
	sess.Generating = true
	require.NoError(t, svc.store.Save(ctx, sess))

	require.NoError(t, svc.GenerateDiagnosis(ctx, sess.ID))

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Diagnosis)
	assert.False(t, got.Generating)
	assert.Equal(t, 1, agent.diagnoseCalls)
}

func TestGenerateDiagnosis_FinalSaveFailureIsRetried(t *testing.T) {
	store := newFlakyStore()
	agent := &fakeAgent{diagnosis: hypertensionDiagnosis()}
	svc, _ := newTestServiceWithStore(agent, nil, store)
	ctx := context.Background()

	sess := NewSession(time.Now())
	sess.Step = StepDiagnosis
	require.NoError(t, store.Save(ctx, sess))

	// the Generating save goes through, the first diagnosis write fails
	store.failNext(nil, errStoreDown)
	require.NoError(t, svc.GenerateDiagnosis(ctx, sess.ID))

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Diagnosis)
	assert.Equal(t, "Hypertension", got.Diagnosis.Primary.Condition)
	assert.False(t, got.Generating)
	assert.Empty(t, svc.generating)
}

func TestGenerateDiagnosis_LostDiagnosisCanBeRegenerated(t *testing.T) {
	store := newFlakyStore()
	agent := &fakeAgent{diagnosis: hypertensionDiagnosis()}
	svc, _ := newTestServiceWithStore(agent, nil, store)
	ctx := context.Background()

	sess := NewSession(time.Now())
	sess.Step = StepDiagnosis
	require.NoError(t, store.Save(ctx, sess))

	store.failNext(nil, errStoreDown, errStoreDown)
	err := svc.GenerateDiagnosis(ctx, sess.ID)
	require.ErrorIs(t, err, errStoreDown)

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, got.Generating)
	assert.Nil(t, got.Diagnosis)
	assert.Empty(t, svc.generating)

	require.NoError(t, svc.GenerateDiagnosis(ctx, sess.ID))

	got, err = svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Diagnosis)
	assert.False(t, got.Generating)
	assert.Equal(t, 2, agent.diagnoseCalls)

	_, err = svc.SaveConsultation(ctx, sess.ID)
	assert.NoError(t, err)
}

func TestGenerateDiagnosis_NotOnEarlierSteps(t *testing.T) {
	agent := &fakeAgent{diagnosis: hypertensionDiagnosis()}
	svc, _ := newTestService(agent, nil)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.GenerateDiagnosis(ctx, sess.ID))
	assert.Equal(t, 0, agent.diagnoseCalls)
}

func TestSaveConsultation(t *testing.T) {
	agent := &fakeAgent{reply: "noted", diagnosis: hypertensionDiagnosis()}
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	svc, repo := newTestService(agent, notifier)
	ctx := context.Background()

	id := walkToVitals(t, svc)

	_, err := svc.SaveConsultation(ctx, id)
	assert.ErrorIs(t, err, ErrNoDiagnosis)

	_, err = svc.Advance(ctx, id)
	require.NoError(t, err)

	first, err := svc.SaveConsultation(ctx, id)
	require.NoError(t, err, "alert failure must not fail the save")
	second, err := svc.SaveConsultation(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, StatusCompleted, records[0].Status)
	assert.Equal(t, "Rajesh Kumar", records[0].Patient.Name)
	assert.Equal(t, []string{"Fever", "Cough"}, records[0].Symptoms)
	assert.Equal(t, "Hypertension", records[0].Diagnosis.Primary.Condition)

	assert.Len(t, notifier.records, 2)
}

func TestSaveConsultation_NonUrgentSkipsAlert(t *testing.T) {
	d := hypertensionDiagnosis()
	d.Referral.Urgent = false
	agent := &fakeAgent{reply: "noted", diagnosis: d}
	notifier := &fakeNotifier{}
	svc, _ := newTestService(agent, notifier)
	ctx := context.Background()

	id := walkToVitals(t, svc)
	_, err := svc.Advance(ctx, id)
	require.NoError(t, err)

	_, err = svc.SaveConsultation(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, notifier.records)
}
