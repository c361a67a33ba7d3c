package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/WaelAlfnan/OrderDelivery-sub000/credential"
	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
	"github.com/WaelAlfnan/OrderDelivery-sub000/otp"
	regpkg "github.com/WaelAlfnan/OrderDelivery-sub000/registration"
	"github.com/WaelAlfnan/OrderDelivery-sub000/sms"
	"github.com/WaelAlfnan/OrderDelivery-sub000/storage"
)

const testPhone = "+15551234567"

type memRegRepo struct {
	mu         sync.Mutex
	pending    map[string]entity.PendingRegistration
	merchants  []entity.Merchant
	drivers    []entity.Driver
	vehicles   []entity.Vehicle
	residences []entity.Residence

	// failDriverTx simulates a transaction failure after the driver insert
	// but before the vehicle insert; nothing commits.
	failDriverTx bool
}

func newMemRegRepo() *memRegRepo {
	return &memRegRepo{pending: make(map[string]entity.PendingRegistration)}
}

func (r *memRegRepo) CreatePending(ctx context.Context, p *entity.PendingRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[p.PhoneNumber]; ok {
		return regpkg.ErrAlreadyRegistered
	}
	r.pending[p.PhoneNumber] = *p
	return nil
}

func (r *memRegRepo) PendingByPhone(ctx context.Context, phone string) (*entity.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[phone]
	if !ok {
		return nil, regpkg.ErrPendingNotFound
	}
	out := p
	return &out, nil
}

func (r *memRegRepo) UpdatePending(ctx context.Context, p *entity.PendingRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[p.PhoneNumber] = *p
	return nil
}

func (r *memRegRepo) DeletePending(ctx context.Context, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, phone)
	return nil
}

func (r *memRegRepo) CompleteMerchant(ctx context.Context, phone string, m *entity.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merchants = append(r.merchants, *m)
	delete(r.pending, phone)
	return nil
}

func (r *memRegRepo) CompleteDriver(ctx context.Context, phone string, d *entity.Driver, v *entity.Vehicle, res *entity.Residence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDriverTx {
		// all-or-nothing: the aborted transaction leaves no rows behind
		return errors.New("simulated transaction failure")
	}
	r.drivers = append(r.drivers, *d)
	r.vehicles = append(r.vehicles, *v)
	r.residences = append(r.residences, *res)
	delete(r.pending, phone)
	return nil
}

type memCredStore struct {
	mu    sync.Mutex
	users map[string]*entity.User // by phone
	roles map[uuid.UUID][]string
	known map[string]uuid.UUID // role name to id
}

func newMemCredStore() *memCredStore {
	return &memCredStore{
		users: make(map[string]*entity.User),
		roles: make(map[uuid.UUID][]string),
		known: make(map[string]uuid.UUID),
	}
}

func (s *memCredStore) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[phone]
	if !ok {
		return nil, credential.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (s *memCredStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, credential.ErrUserNotFound
}

func (s *memCredStore) CheckPassword(ctx context.Context, userID uuid.UUID, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			return credential.ComparePassword(u.PasswordHash, password)
		}
	}
	return credential.ErrUserNotFound
}

func (s *memCredStore) CreateUser(ctx context.Context, nu credential.NewUser) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[nu.Phone]; ok {
		return nil, credential.ErrPhoneTaken
	}
	u := &entity.User{
		ID:            uuid.New(),
		FirstName:     nu.FirstName,
		LastName:      nu.LastName,
		Phone:         nu.Phone,
		PhoneVerified: nu.PhoneVerified,
		PasswordHash:  nu.PasswordHash,
		NationalID:    nu.NationalID,
	}
	s.users[nu.Phone] = u
	return u, nil
}

func (s *memCredStore) UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, err := credential.HashPassword(password)
	if err != nil {
		return err
	}
	for _, u := range s.users {
		if u.ID == userID {
			u.PasswordHash = hash
			return nil
		}
	}
	return credential.ErrUserNotFound
}

func (s *memCredStore) EnsureRole(ctx context.Context, name string) (*entity.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.known[name]; ok {
		return &entity.Role{ID: id, Name: name}, nil
	}
	id := uuid.New()
	s.known[name] = id
	return &entity.Role{ID: id, Name: name}, nil
}

func (s *memCredStore) AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[userID] = append(s.roles[userID], roleName)
	return nil
}

func (s *memCredStore) GetRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.roles[userID]...), nil
}

type captureSender struct {
	mu   sync.Mutex
	sent []string // codes in dispatch order
	fail bool
}

func (s *captureSender) SendCode(ctx context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return sms.ErrDispatchFailed
	}
	s.sent = append(s.sent, code)
	return nil
}

func (s *captureSender) last(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatal("no sms dispatched")
	}
	return s.sent[len(s.sent)-1]
}

type memPhotoStore struct {
	mu       sync.Mutex
	uploads  []string
	deletes  []string
	failFrom int // fail the n-th upload onward (1-based); 0 disables
}

func (s *memPhotoStore) UploadPhoto(ctx context.Context, data []byte, fileName, folder string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFrom > 0 && len(s.uploads)+1 >= s.failFrom {
		return "", errors.New("blob store unavailable")
	}
	url := fmt.Sprintf("%s/%d_%s", folder, len(s.uploads), fileName)
	s.uploads = append(s.uploads, url)
	return url, nil
}

func (s *memPhotoStore) DeletePhoto(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, url)
	return nil
}

func (s *memPhotoStore) PhotoExists(ctx context.Context, url string) (bool, error) {
	return false, nil
}

type fixture struct {
	svc    regpkg.Service
	repo   *memRegRepo
	creds  *memCredStore
	sender *captureSender
	photos *memPhotoStore
	codes  *otp.MemoryStore
}

func newFixture() *fixture {
	repo := newMemRegRepo()
	creds := newMemCredStore()
	sender := &captureSender{}
	photos := &memPhotoStore{}
	codes := otp.NewMemoryStore()
	svc := NewRegistrationService(repo, codes, sender, photos, creds, zap.NewNop())
	return &fixture{svc: svc, repo: repo, creds: creds, sender: sender, photos: photos, codes: codes}
}

func photo(name string) regpkg.Photo {
	return regpkg.Photo{FileName: name, Data: []byte("jpeg-bytes")}
}

// advance drives the saga to the given step for a merchant or driver.
func (f *fixture) advance(t *testing.T, role entity.RegistrationRole, through int) {
	t.Helper()
	ctx := context.Background()
	if err := f.svc.StartRegistration(ctx, testPhone); err != nil {
		t.Fatalf("StartRegistration: %v", err)
	}
	if through < entity.StepPhoneVerified {
		return
	}
	if err := f.svc.VerifyPhone(ctx, testPhone, f.sender.last(t)); err != nil {
		t.Fatalf("VerifyPhone: %v", err)
	}
	if through < entity.StepPasswordSet {
		return
	}
	if err := f.svc.SetPassword(ctx, testPhone, "sup3rsecret"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if through < entity.StepRoleSet {
		return
	}
	if err := f.svc.SetRole(ctx, testPhone, role); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if through < entity.StepBasicInfoSet {
		return
	}
	if err := f.svc.SetBasicInfo(ctx, testPhone, "Abel Tesfaye Girma", "29901011234567",
		photo("personal.jpg"), photo("id_front.jpg"), photo("id_back.jpg")); err != nil {
		t.Fatalf("SetBasicInfo: %v", err)
	}
	if through < entity.StepRoleInfoSet {
		return
	}
	if role == entity.RegistrationRoleMerchant {
		if err := f.svc.SetMerchantInfo(context.Background(), testPhone, regpkg.MerchantInfo{
			StoreName: "Abel Electronics", BusinessType: "electronics", StoreAddress: "Bole Road 12",
		}); err != nil {
			t.Fatalf("SetMerchantInfo: %v", err)
		}
		return
	}
	if err := f.svc.SetDriverInfo(ctx, testPhone, regpkg.DriverInfo{LicenseNumber: "DL-778812"}); err != nil {
		t.Fatalf("SetDriverInfo: %v", err)
	}
	if through < entity.StepVehicleSet {
		return
	}
	if err := f.svc.SetVehicleInfo(ctx, testPhone, regpkg.SetVehicleInfoRequest{
		Type: entity.VehicleMotor, Model: "Lifan 150", PlateNumber: "AA-12345", Color: "red",
		FrontPhoto: photo("front.jpg"), SidePhoto: photo("side.jpg"),
	}); err != nil {
		t.Fatalf("SetVehicleInfo: %v", err)
	}
	if through < entity.StepResidenceSet {
		return
	}
	if err := f.svc.SetResidenceInfo(ctx, testPhone, regpkg.ResidenceInfo{
		Region: "Addis Ababa", City: "Addis Ababa", Street: "Megenagna",
	}); err != nil {
		t.Fatalf("SetResidenceInfo: %v", err)
	}
}

func TestStartRegistrationTwiceConflicts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.StartRegistration(ctx, testPhone); err != nil {
		t.Fatalf("first StartRegistration: %v", err)
	}
	if err := f.svc.StartRegistration(ctx, testPhone); !errors.Is(err, regpkg.ErrAlreadyRegistered) {
		t.Fatalf("second StartRegistration = %v, want ErrAlreadyRegistered", err)
	}
}

func TestStartRegistrationRejectsCompletedUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.creds.CreateUser(ctx, credential.NewUser{Phone: testPhone}); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.StartRegistration(ctx, testPhone); !errors.Is(err, regpkg.ErrAlreadyRegistered) {
		t.Fatalf("StartRegistration = %v, want ErrAlreadyRegistered", err)
	}
}

func TestStartRegistrationInvalidPhone(t *testing.T) {
	f := newFixture()
	for _, phone := range []string{"", "12345", "not-a-phone", "+1555123456789012345"} {
		if err := f.svc.StartRegistration(context.Background(), phone); !errors.Is(err, regpkg.ErrInvalidPhone) {
			t.Fatalf("StartRegistration(%q) = %v, want ErrInvalidPhone", phone, err)
		}
	}
}

func TestStartRegistrationDispatchFailureRollsBack(t *testing.T) {
	f := newFixture()
	f.sender.fail = true
	ctx := context.Background()

	if err := f.svc.StartRegistration(ctx, testPhone); !errors.Is(err, sms.ErrDispatchFailed) {
		t.Fatalf("StartRegistration = %v, want ErrDispatchFailed", err)
	}
	// the pending record must not exist without a deliverable code
	if _, err := f.repo.PendingByPhone(ctx, testPhone); !errors.Is(err, regpkg.ErrPendingNotFound) {
		t.Fatalf("pending survived dispatch failure: %v", err)
	}
	// retry succeeds once dispatch works again
	f.sender.fail = false
	if err := f.svc.StartRegistration(ctx, testPhone); err != nil {
		t.Fatalf("retry StartRegistration: %v", err)
	}
}

func TestVerifyPhoneAdvancesStep(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.StartRegistration(ctx, testPhone); err != nil {
		t.Fatalf("StartRegistration: %v", err)
	}
	code := f.sender.last(t)
	if err := f.svc.VerifyPhone(ctx, testPhone, code); err != nil {
		t.Fatalf("VerifyPhone: %v", err)
	}

	pending, err := f.repo.PendingByPhone(ctx, testPhone)
	if err != nil {
		t.Fatal(err)
	}
	if !pending.IsPhoneVerified || pending.Step != entity.StepPhoneVerified {
		t.Fatalf("pending = verified:%v step:%d, want verified:true step:%d",
			pending.IsPhoneVerified, pending.Step, entity.StepPhoneVerified)
	}
	// the code was consumed
	if err := f.svc.VerifyPhone(ctx, testPhone, code); !errors.Is(err, otp.ErrCodeNotFound) {
		t.Fatalf("replayed VerifyPhone = %v, want ErrCodeNotFound", err)
	}
}

func TestVerifyPhoneWrongCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.StartRegistration(ctx, testPhone); err != nil {
		t.Fatalf("StartRegistration: %v", err)
	}
	if f.sender.last(t) == "000000" {
		t.Skip("generated code collided with the mismatch candidate")
	}
	if err := f.svc.VerifyPhone(ctx, testPhone, "000000"); !errors.Is(err, otp.ErrCodeMismatch) {
		t.Fatalf("VerifyPhone = %v, want ErrCodeMismatch", err)
	}
	pending, _ := f.repo.PendingByPhone(ctx, testPhone)
	if pending.IsPhoneVerified || pending.Step != entity.StepPhoneRegistered {
		t.Fatalf("state advanced on wrong code: verified:%v step:%d", pending.IsPhoneVerified, pending.Step)
	}
}

func TestStepOrderViolationFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.advance(t, entity.RegistrationRoleDriver, entity.StepPhoneVerified)

	// at step 2; step-4 and step-5 operations must be refused
	if err := f.svc.SetRole(ctx, testPhone, entity.RegistrationRoleDriver); !errors.Is(err, regpkg.ErrStepOrder) {
		t.Fatalf("SetRole = %v, want ErrStepOrder", err)
	}
	if err := f.svc.SetBasicInfo(ctx, testPhone, "A B", "1", photo("a"), photo("b"), photo("c")); !errors.Is(err, regpkg.ErrStepOrder) {
		t.Fatalf("SetBasicInfo = %v, want ErrStepOrder", err)
	}
	pending, _ := f.repo.PendingByPhone(ctx, testPhone)
	if pending.Step != entity.StepPhoneVerified {
		t.Fatalf("step = %d, want %d", pending.Step, entity.StepPhoneVerified)
	}
}

func TestSetRoleInvalidRoleLeavesStateUnchanged(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.advance(t, entity.RegistrationRoleDriver, entity.StepPasswordSet)

	if err := f.svc.SetRole(ctx, testPhone, entity.RegistrationRole("courier")); !errors.Is(err, regpkg.ErrInvalidRole) {
		t.Fatalf("SetRole = %v, want ErrInvalidRole", err)
	}
	pending, _ := f.repo.PendingByPhone(ctx, testPhone)
	if pending.Step != entity.StepPasswordSet || pending.Role != nil {
		t.Fatalf("state changed on invalid role: step:%d role:%v", pending.Step, pending.Role)
	}
}

func TestStepReplayResetsCursor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.advance(t, entity.RegistrationRoleMerchant, entity.StepRoleSet)

	// re-submitting an already-applied step is accepted while its
	// precondition holds, and re-sets the cursor to that step's number
	if err := f.svc.SetRole(ctx, testPhone, entity.RegistrationRoleMerchant); err != nil {
		t.Fatalf("replayed SetRole: %v", err)
	}
	pending, _ := f.repo.PendingByPhone(ctx, testPhone)
	if pending.Step != entity.StepRoleSet {
		t.Fatalf("step = %d, want %d", pending.Step, entity.StepRoleSet)
	}
}

func TestSetPasswordRequiresVerifiedPhone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.advance(t, entity.RegistrationRoleDriver, entity.StepPhoneRegistered)

	if err := f.svc.SetPassword(ctx, testPhone, "sup3rsecret"); !errors.Is(err, regpkg.ErrStepOrder) {
		t.Fatalf("SetPassword = %v, want ErrStepOrder", err)
	}
}

func TestSetBasicInfoUploadFailureCompensates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.advance(t, entity.RegistrationRoleDriver, entity.StepRoleSet)

	f.photos.failFrom = 3 // third upload fails
	err := f.svc.SetBasicInfo(ctx, testPhone, "Abel Tesfaye", "123",
		photo("personal.jpg"), photo("id_front.jpg"), photo("id_back.jpg"))
	if !errors.Is(err, storage.ErrUploadFailed) {
		t.Fatalf("SetBasicInfo = %v, want ErrUploadFailed", err)
	}
	// both already-uploaded photos were best-effort deleted
	if len(f.photos.deletes) != 2 {
		t.Fatalf("got %d compensating deletes, want 2", len(f.photos.deletes))
	}
	pending, _ := f.repo.PendingByPhone(ctx, testPhone)
	if pending.Step != entity.StepRoleSet || pending.BasicInfoJSON != "" {
		t.Fatalf("step advanced on failed upload: step:%d", pending.Step)
	}
}

func TestRoleInfoMismatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.advance(t, entity.RegistrationRoleMerchant, entity.StepBasicInfoSet)

	if err := f.svc.SetDriverInfo(ctx, testPhone, regpkg.DriverInfo{LicenseNumber: "DL-1"}); !errors.Is(err, regpkg.ErrRoleMismatch) {
		t.Fatalf("SetDriverInfo = %v, want ErrRoleMismatch", err)
	}
	if err := f.svc.SetVehicleInfo(ctx, testPhone, regpkg.SetVehicleInfoRequest{}); !errors.Is(err, regpkg.ErrStepOrder) {
		t.Fatalf("SetVehicleInfo = %v, want ErrStepOrder", err)
	}
}

func TestCompleteMerchantRegistration(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.advance(t, entity.RegistrationRoleMerchant, entity.StepRoleInfoSet)

	user, err := f.svc.CompleteRegistration(ctx, testPhone)
	if err != nil {
		t.Fatalf("CompleteRegistration: %v", err)
	}
	if user.FirstName != "Abel" || user.LastName != "Tesfaye Girma" {
		t.Fatalf("name split = %q %q", user.FirstName, user.LastName)
	}
	if !user.PhoneVerified {
		t.Fatal("completed user not phone-verified")
	}
	roles, _ := f.creds.GetRoles(ctx, user.ID)
	if len(roles) != 1 || roles[0] != entity.RoleMerchant {
		t.Fatalf("roles = %v, want [merchant]", roles)
	}
	if len(f.repo.merchants) != 1 {
		t.Fatalf("merchants = %d, want 1", len(f.repo.merchants))
	}
	if f.repo.merchants[0].StoreName != "Abel Electronics" {
		t.Fatalf("store name = %q", f.repo.merchants[0].StoreName)
	}
	if _, err := f.repo.PendingByPhone(ctx, testPhone); !errors.Is(err, regpkg.ErrPendingNotFound) {
		t.Fatalf("pending survived completion: %v", err)
	}
}

func TestCompleteDriverRegistrationAllOrNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.advance(t, entity.RegistrationRoleDriver, entity.StepResidenceSet)

	f.repo.failDriverTx = true
	if _, err := f.svc.CompleteRegistration(ctx, testPhone); err == nil {
		t.Fatal("CompleteRegistration succeeded despite transaction failure")
	}
	if len(f.repo.drivers)+len(f.repo.vehicles)+len(f.repo.residences) != 0 {
		t.Fatal("partial rows committed despite transaction failure")
	}
	if _, err := f.repo.PendingByPhone(ctx, testPhone); err != nil {
		t.Fatalf("pending gone after rolled-back completion: %v", err)
	}
}

func TestCompleteDriverRegistration(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.advance(t, entity.RegistrationRoleDriver, entity.StepResidenceSet)

	user, err := f.svc.CompleteRegistration(ctx, testPhone)
	if err != nil {
		t.Fatalf("CompleteRegistration: %v", err)
	}
	if len(f.repo.drivers) != 1 || len(f.repo.vehicles) != 1 || len(f.repo.residences) != 1 {
		t.Fatalf("entities = %d drivers %d vehicles %d residences, want 1 each",
			len(f.repo.drivers), len(f.repo.vehicles), len(f.repo.residences))
	}
	if f.repo.drivers[0].UserID != user.ID {
		t.Fatal("driver not linked to created user")
	}
	if f.repo.vehicles[0].PlateNumber != "AA-12345" {
		t.Fatalf("plate = %q", f.repo.vehicles[0].PlateNumber)
	}
	if !strings.HasPrefix(f.repo.drivers[0].PersonalPhotoURL, identityPhotoFolder+"/") {
		t.Fatalf("personal photo url = %q", f.repo.drivers[0].PersonalPhotoURL)
	}
	if _, err := f.repo.PendingByPhone(ctx, testPhone); !errors.Is(err, regpkg.ErrPendingNotFound) {
		t.Fatal("pending survived completion")
	}
}

func TestCompleteRegistrationPreconditions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.advance(t, entity.RegistrationRoleDriver, entity.StepPhoneRegistered)

	if _, err := f.svc.CompleteRegistration(ctx, testPhone); !errors.Is(err, regpkg.ErrPhoneNotVerified) {
		t.Fatalf("CompleteRegistration = %v, want ErrPhoneNotVerified", err)
	}
	if err := f.svc.VerifyPhone(ctx, testPhone, f.sender.last(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CompleteRegistration(ctx, testPhone); !errors.Is(err, regpkg.ErrRoleNotSet) {
		t.Fatalf("CompleteRegistration = %v, want ErrRoleNotSet", err)
	}
}
