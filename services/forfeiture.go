package services

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lablinkriparo/riparo-be/metrics"
	"github.com/lablinkriparo/riparo-be/models"
)

const (
	forfeitureWarningDays = 23
	forfeitureDays        = 30
)

type repairAction int

const (
	actionNone repairAction = iota
	actionWarn
	actionForfeit
)

// classifyRepair decides what the sweeper does with one completed,
// unretrieved repair. Days are counted as floored whole days, so a repair
// at 22 days and 23 hours is still untouched.
func classifyRepair(completedAt time.Time, warningSent bool, now time.Time) repairAction {
	days := int(now.Sub(completedAt).Hours() / 24)
	switch {
	case days >= forfeitureDays:
		return actionForfeit
	case days >= forfeitureWarningDays && !warningSent:
		return actionWarn
	default:
		return actionNone
	}
}

type ForfeitureService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewForfeitureService(db *gorm.DB, notifier Notifier) *ForfeitureService {
	return &ForfeitureService{db: db, notifier: notifier}
}

// SweepResult is the batch summary returned to the scheduler.
type SweepResult struct {
	WarningsSent            int      `json:"warnings_sent"`
	Forfeited               int      `json:"forfeited"`
	DevicesAddedToInventory int      `json:"devices_added_to_inventory"`
	Errors                  []string `json:"errors"`
}

// Sweep scans completed-but-unretrieved repairs and transitions them
// through warning to forfeited. One failing repair does not abort the
// batch; its error is collected into the summary.
func (s *ForfeitureService) Sweep() (*SweepResult, error) {
	log.Info("[FORFEITURE] Starting forfeiture check")

	var repairs []models.Repair
	err := s.db.Preload("Device").Preload("Device.Customer").
		Where("status = ? AND delivered_at IS NULL AND forfeited_at IS NULL AND completed_at IS NOT NULL",
			models.RepairStatusCompleted).
		Find(&repairs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repairs: %w", err)
	}

	log.WithField("count", len(repairs)).Info("[FORFEITURE] Completed repairs awaiting pickup")

	now := time.Now()
	result := &SweepResult{Errors: []string{}}

	for i := range repairs {
		repair := &repairs[i]
		switch classifyRepair(*repair.CompletedAt, repair.ForfeitureWarningSentAt != nil, now) {
		case actionForfeit:
			s.forfeit(repair, now, result)
		case actionWarn:
			s.warn(repair, now, result)
		}
	}

	log.WithFields(log.Fields{
		"warnings_sent": result.WarningsSent,
		"forfeited":     result.Forfeited,
		"inventory":     result.DevicesAddedToInventory,
		"errors":        len(result.Errors),
	}).Info("[FORFEITURE] Forfeiture check completed")

	return result, nil
}

func (s *ForfeitureService) forfeit(repair *models.Repair, now time.Time, result *SweepResult) {
	err := s.db.Model(&models.Repair{}).Where("id = ?", repair.ID).Updates(map[string]interface{}{
		"status":       models.RepairStatusForfeited,
		"forfeited_at": now,
	}).Error
	if err != nil {
		log.WithError(err).WithField("repair_id", repair.ID).Error("[FORFEITURE] Error forfeiting repair")
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to forfeit repair %d", repair.ID))
		return
	}

	result.Forfeited++
	metrics.RepairsForfeited.Inc()

	// The forfeited device becomes sellable inventory of the centro, at
	// zero cost; the selling price is left for the centro to set.
	device := repair.Device
	item := models.SparePart{
		CentroID:           s.centroID(&device),
		Name:               fmt.Sprintf("%s %s (Alienato)", device.Brand, device.Model),
		Category:           "Dispositivi",
		Brand:              device.Brand,
		ModelCompatibility: device.Model,
		StockQuantity:      1,
		Notes: fmt.Sprintf("Dispositivo alienato - IMEI: %s - S/N: %s - Condizione: %s - Da riparazione #%d",
			orNA(device.IMEI), orNA(device.SerialNumber), orDefault(device.InitialCondition, "Non specificata"), repair.ID),
	}

	if err := s.db.Create(&item).Error; err != nil {
		log.WithError(err).WithField("repair_id", repair.ID).Error("[FORFEITURE] Error adding device to inventory")
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to add device %d to inventory", repair.ID))
		return
	}

	result.DevicesAddedToInventory++
	log.WithField("repair_id", repair.ID).Info("[FORFEITURE] Repair forfeited, device added to inventory")
}

func (s *ForfeitureService) warn(repair *models.Repair, now time.Time, result *SweepResult) {
	err := s.db.Model(&models.Repair{}).Where("id = ?", repair.ID).
		Update("forfeiture_warning_sent_at", now).Error
	if err != nil {
		log.WithError(err).WithField("repair_id", repair.ID).Error("[FORFEITURE] Error recording warning")
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to send warning for repair %d", repair.ID))
		return
	}

	result.WarningsSent++
	metrics.ForfeitureWarnings.Inc()

	if err := s.notifier.ForfeitureWarning(repair); err != nil {
		log.WithError(err).WithField("repair_id", repair.ID).Warn("[FORFEITURE] Warning notification failed")
	}

	log.WithField("repair_id", repair.ID).Info("[FORFEITURE] Warning recorded")
}

func (s *ForfeitureService) centroID(device *models.Device) *uint {
	if device.Customer.CentroID != 0 {
		id := device.Customer.CentroID
		return &id
	}
	return nil
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
