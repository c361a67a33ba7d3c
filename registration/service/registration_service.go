package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/WaelAlfnan/OrderDelivery-sub000/credential"
	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
	"github.com/WaelAlfnan/OrderDelivery-sub000/otp"
	regpkg "github.com/WaelAlfnan/OrderDelivery-sub000/registration"
	"github.com/WaelAlfnan/OrderDelivery-sub000/sms"
	"github.com/WaelAlfnan/OrderDelivery-sub000/storage"
)

const (
	identityPhotoFolder = "identity"
	vehiclePhotoFolder  = "vehicles"
)

type registrationService struct {
	repo   regpkg.Repository
	codes  otp.CodeStore
	sender sms.Sender
	photos storage.PhotoStorage
	creds  credential.Store
	log    *zap.Logger
}

// NewRegistrationService constructs the registration orchestrator.
func NewRegistrationService(
	repo regpkg.Repository,
	codes otp.CodeStore,
	sender sms.Sender,
	photos storage.PhotoStorage,
	creds credential.Store,
	log *zap.Logger,
) regpkg.Service {
	return &registrationService{
		repo:   repo,
		codes:  codes,
		sender: sender,
		photos: photos,
		creds:  creds,
		log:    log,
	}
}

func (s *registrationService) StartRegistration(ctx context.Context, phone string) error {
	if !regpkg.ValidPhone(phone) {
		return regpkg.ErrInvalidPhone
	}
	if _, err := s.creds.FindByPhone(ctx, phone); err == nil {
		return regpkg.ErrAlreadyRegistered
	} else if !errors.Is(err, credential.ErrUserNotFound) {
		return err
	}
	if _, err := s.repo.PendingByPhone(ctx, phone); err == nil {
		return regpkg.ErrAlreadyRegistered
	} else if !errors.Is(err, regpkg.ErrPendingNotFound) {
		return err
	}

	pending := &entity.PendingRegistration{
		PhoneNumber: phone,
		Step:        entity.StepPhoneRegistered,
	}
	if err := s.repo.CreatePending(ctx, pending); err != nil {
		return err
	}

	code, err := s.codes.Issue(ctx, phone, otp.PurposeRegister)
	if err != nil {
		_ = s.repo.DeletePending(ctx, phone)
		return err
	}
	if err := s.sender.SendCode(ctx, phone, code); err != nil {
		// a registration must not exist without a deliverable code
		_ = s.codes.Delete(ctx, phone, otp.PurposeRegister)
		_ = s.repo.DeletePending(ctx, phone)
		return fmt.Errorf("%w: %v", sms.ErrDispatchFailed, err)
	}
	s.log.Info("registration started", zap.String("phone", phone))
	return nil
}

func (s *registrationService) VerifyPhone(ctx context.Context, phone, code string) error {
	pending, err := s.repo.PendingByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if err := s.codes.Verify(ctx, phone, otp.PurposeRegister, code); err != nil {
		return err
	}
	pending.IsPhoneVerified = true
	pending.Step = entity.StepPhoneVerified
	return s.repo.UpdatePending(ctx, pending)
}

func (s *registrationService) SetPassword(ctx context.Context, phone, password string) error {
	pending, err := s.pendingAtStep(ctx, phone, entity.StepPhoneVerified)
	if err != nil {
		return err
	}
	if !pending.IsPhoneVerified {
		return regpkg.ErrPhoneNotVerified
	}
	if len(password) < 8 {
		return regpkg.ErrWeakPassword
	}
	hash, err := credential.HashPassword(password)
	if err != nil {
		return err
	}
	pending.PasswordHash = hash
	pending.Step = entity.StepPasswordSet
	return s.repo.UpdatePending(ctx, pending)
}

func (s *registrationService) SetRole(ctx context.Context, phone string, role entity.RegistrationRole) error {
	pending, err := s.pendingAtStep(ctx, phone, entity.StepPasswordSet)
	if err != nil {
		return err
	}
	if role != entity.RegistrationRoleMerchant && role != entity.RegistrationRoleDriver {
		return regpkg.ErrInvalidRole
	}
	pending.Role = &role
	pending.Step = entity.StepRoleSet
	return s.repo.UpdatePending(ctx, pending)
}

func (s *registrationService) SetBasicInfo(ctx context.Context, phone, fullName, nationalID string, personal, idFront, idBack regpkg.Photo) error {
	pending, err := s.pendingAtStep(ctx, phone, entity.StepRoleSet)
	if err != nil {
		return err
	}

	urls, err := s.uploadAll(ctx, identityPhotoFolder, personal, idFront, idBack)
	if err != nil {
		return err
	}

	info := regpkg.BasicInfo{
		FullName:         fullName,
		NationalID:       nationalID,
		PersonalPhotoURL: urls[0],
		IDFrontPhotoURL:  urls[1],
		IDBackPhotoURL:   urls[2],
	}
	blob, err := json.Marshal(info)
	if err != nil {
		return err
	}
	pending.BasicInfoJSON = string(blob)
	pending.Step = entity.StepBasicInfoSet
	return s.repo.UpdatePending(ctx, pending)
}

func (s *registrationService) SetMerchantInfo(ctx context.Context, phone string, info regpkg.MerchantInfo) error {
	pending, err := s.pendingAtStep(ctx, phone, entity.StepBasicInfoSet)
	if err != nil {
		return err
	}
	if pending.Role == nil || *pending.Role != entity.RegistrationRoleMerchant {
		return regpkg.ErrRoleMismatch
	}
	blob, err := json.Marshal(info)
	if err != nil {
		return err
	}
	pending.MerchantInfoJSON = string(blob)
	pending.Step = entity.StepRoleInfoSet
	return s.repo.UpdatePending(ctx, pending)
}

func (s *registrationService) SetDriverInfo(ctx context.Context, phone string, info regpkg.DriverInfo) error {
	pending, err := s.pendingAtStep(ctx, phone, entity.StepBasicInfoSet)
	if err != nil {
		return err
	}
	if pending.Role == nil || *pending.Role != entity.RegistrationRoleDriver {
		return regpkg.ErrRoleMismatch
	}
	blob, err := json.Marshal(info)
	if err != nil {
		return err
	}
	pending.DriverInfoJSON = string(blob)
	pending.Step = entity.StepRoleInfoSet
	return s.repo.UpdatePending(ctx, pending)
}

func (s *registrationService) SetVehicleInfo(ctx context.Context, phone string, req regpkg.SetVehicleInfoRequest) error {
	pending, err := s.pendingAtStep(ctx, phone, entity.StepRoleInfoSet)
	if err != nil {
		return err
	}
	if pending.Role == nil || *pending.Role != entity.RegistrationRoleDriver {
		return regpkg.ErrRoleMismatch
	}

	urls, err := s.uploadAll(ctx, vehiclePhotoFolder, req.FrontPhoto, req.SidePhoto)
	if err != nil {
		return err
	}

	info := regpkg.VehicleInfo{
		Type:          req.Type,
		Model:         req.Model,
		PlateNumber:   req.PlateNumber,
		Color:         req.Color,
		FrontPhotoURL: urls[0],
		SidePhotoURL:  urls[1],
	}
	blob, err := json.Marshal(info)
	if err != nil {
		return err
	}
	pending.VehicleInfoJSON = string(blob)
	pending.Step = entity.StepVehicleSet
	return s.repo.UpdatePending(ctx, pending)
}

func (s *registrationService) SetResidenceInfo(ctx context.Context, phone string, info regpkg.ResidenceInfo) error {
	pending, err := s.pendingAtStep(ctx, phone, entity.StepVehicleSet)
	if err != nil {
		return err
	}
	if pending.Role == nil || *pending.Role != entity.RegistrationRoleDriver {
		return regpkg.ErrRoleMismatch
	}
	blob, err := json.Marshal(info)
	if err != nil {
		return err
	}
	pending.ResidenceInfoJSON = string(blob)
	pending.Step = entity.StepResidenceSet
	return s.repo.UpdatePending(ctx, pending)
}

func (s *registrationService) CompleteRegistration(ctx context.Context, phone string) (*entity.User, error) {
	pending, err := s.repo.PendingByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !pending.IsPhoneVerified {
		return nil, regpkg.ErrPhoneNotVerified
	}
	if pending.Role == nil {
		return nil, regpkg.ErrRoleNotSet
	}
	if pending.PasswordHash == "" {
		return nil, regpkg.ErrPasswordNotSet
	}
	if pending.BasicInfoJSON == "" {
		return nil, regpkg.ErrBasicInfoMissing
	}

	var basic regpkg.BasicInfo
	if err := json.Unmarshal([]byte(pending.BasicInfoJSON), &basic); err != nil {
		return nil, fmt.Errorf("malformed basic info payload: %w", err)
	}
	firstName, lastName := splitFullName(basic.FullName)

	// The identity is created against the credential store, outside the
	// role-entity transaction below; the store manages its own consistency.
	// A crash between the two leaves an identity without role entities.
	user, err := s.creds.CreateUser(ctx, credential.NewUser{
		FirstName:     firstName,
		LastName:      lastName,
		Phone:         phone,
		PhoneVerified: true,
		PasswordHash:  pending.PasswordHash,
		NationalID:    basic.NationalID,
	})
	if err != nil {
		return nil, err
	}

	roleName := string(*pending.Role)
	role, err := s.creds.EnsureRole(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if err := s.creds.AssignRole(ctx, user.ID, roleName); err != nil {
		return nil, err
	}
	user.Roles = append(user.Roles, *role)

	switch *pending.Role {
	case entity.RegistrationRoleMerchant:
		err = s.completeMerchant(ctx, pending, user, basic)
	case entity.RegistrationRoleDriver:
		err = s.completeDriver(ctx, pending, user, basic)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("registration completed",
		zap.String("phone", phone),
		zap.String("user_id", user.ID.String()),
		zap.String("role", roleName))
	return user, nil
}

func (s *registrationService) completeMerchant(ctx context.Context, pending *entity.PendingRegistration, user *entity.User, basic regpkg.BasicInfo) error {
	var info regpkg.MerchantInfo
	if err := json.Unmarshal([]byte(pending.MerchantInfoJSON), &info); err != nil {
		return fmt.Errorf("malformed merchant info payload: %w", err)
	}
	m := &entity.Merchant{
		UserID:       user.ID,
		StoreName:    info.StoreName,
		BusinessType: info.BusinessType,
		StoreAddress: info.StoreAddress,
		Latitude:     info.Latitude,
		Longitude:    info.Longitude,
		Active:       true,
	}
	return s.repo.CompleteMerchant(ctx, pending.PhoneNumber, m)
}

func (s *registrationService) completeDriver(ctx context.Context, pending *entity.PendingRegistration, user *entity.User, basic regpkg.BasicInfo) error {
	var info regpkg.DriverInfo
	if err := json.Unmarshal([]byte(pending.DriverInfoJSON), &info); err != nil {
		return fmt.Errorf("malformed driver info payload: %w", err)
	}
	var vehicle regpkg.VehicleInfo
	if err := json.Unmarshal([]byte(pending.VehicleInfoJSON), &vehicle); err != nil {
		return fmt.Errorf("malformed vehicle info payload: %w", err)
	}
	var residence regpkg.ResidenceInfo
	if err := json.Unmarshal([]byte(pending.ResidenceInfoJSON), &residence); err != nil {
		return fmt.Errorf("malformed residence info payload: %w", err)
	}

	d := &entity.Driver{
		UserID:           user.ID,
		LicenseNumber:    info.LicenseNumber,
		LicenseExpiry:    info.LicenseExpiry,
		PersonalPhotoURL: basic.PersonalPhotoURL,
		Active:           true,
	}
	v := &entity.Vehicle{
		Type:          vehicle.Type,
		Model:         vehicle.Model,
		PlateNumber:   vehicle.PlateNumber,
		Color:         vehicle.Color,
		FrontPhotoURL: vehicle.FrontPhotoURL,
		SidePhotoURL:  vehicle.SidePhotoURL,
	}
	r := &entity.Residence{
		Region:  residence.Region,
		City:    residence.City,
		Street:  residence.Street,
		Details: residence.Details,
	}
	return s.repo.CompleteDriver(ctx, pending.PhoneNumber, d, v, r)
}

// pendingAtStep loads the pending record and checks the step precondition.
func (s *registrationService) pendingAtStep(ctx context.Context, phone string, minStep int) (*entity.PendingRegistration, error) {
	pending, err := s.repo.PendingByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if pending.Step < minStep {
		return nil, regpkg.ErrStepOrder
	}
	return pending, nil
}

// uploadAll uploads photos one at a time; on any failure the already
// uploaded photos are best-effort deleted and the whole step fails.
func (s *registrationService) uploadAll(ctx context.Context, folder string, photos ...regpkg.Photo) ([]string, error) {
	urls := make([]string, 0, len(photos))
	for _, p := range photos {
		url, err := s.photos.UploadPhoto(ctx, p.Data, p.FileName, folder)
		if err != nil {
			for _, uploaded := range urls {
				if delErr := s.photos.DeletePhoto(ctx, uploaded); delErr != nil {
					s.log.Warn("orphaned photo cleanup failed", zap.String("url", uploaded), zap.Error(delErr))
				}
			}
			return nil, fmt.Errorf("%w: %v", storage.ErrUploadFailed, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func splitFullName(full string) (string, string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
