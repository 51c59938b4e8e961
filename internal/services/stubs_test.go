package services

import (
	"time"

	"github.com/shopspring/decimal"

	"billiard_hall_backend/internal/models"
	"billiard_hall_backend/internal/repositories"
)

// Hand-written repository stubs. Each method delegates to an optional
// function field; the zero value behaves like an empty database.

type stubCategoryRepo struct {
	categories map[int64]*models.TableCategory
}

func (s *stubCategoryRepo) CreateCategory(_ repositories.SQLExecutor, category *models.TableCategory) (int64, error) {
	id := int64(len(s.categories) + 1)
	category.ID = id
	if s.categories == nil {
		s.categories = map[int64]*models.TableCategory{}
	}
	s.categories[id] = category
	return id, nil
}

func (s *stubCategoryRepo) GetCategoryByID(id int64) (*models.TableCategory, error) {
	if c, ok := s.categories[id]; ok {
		return c, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *stubCategoryRepo) GetCategories(activeOnly bool) ([]models.TableCategory, error) {
	out := []models.TableCategory{}
	for _, c := range s.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubCategoryRepo) UpdateCategory(_ repositories.SQLExecutor, category *models.TableCategory) error {
	if _, ok := s.categories[category.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.categories[category.ID] = category
	return nil
}

func (s *stubCategoryRepo) DeleteCategory(_ repositories.SQLExecutor, id int64) error {
	if _, ok := s.categories[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

type stubRuleRepo struct {
	rules []models.DynamicPricingRule
}

func (s *stubRuleRepo) CreateRule(_ repositories.SQLExecutor, rule *models.DynamicPricingRule) (int64, error) {
	rule.ID = int64(len(s.rules) + 1)
	s.rules = append(s.rules, *rule)
	return rule.ID, nil
}

func (s *stubRuleRepo) GetRuleByID(id int64) (*models.DynamicPricingRule, error) {
	for i := range s.rules {
		if s.rules[i].ID == id {
			return &s.rules[i], nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *stubRuleRepo) GetActiveRulesByCategory(categoryID int64) ([]models.DynamicPricingRule, error) {
	out := []models.DynamicPricingRule{}
	for _, r := range s.rules {
		if r.CategoryID == categoryID && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRuleRepo) GetRulesByCategory(categoryID int64) ([]models.DynamicPricingRule, error) {
	out := []models.DynamicPricingRule{}
	for _, r := range s.rules {
		if r.CategoryID == categoryID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRuleRepo) UpdateRule(_ repositories.SQLExecutor, rule *models.DynamicPricingRule) error {
	for i := range s.rules {
		if s.rules[i].ID == rule.ID {
			s.rules[i] = *rule
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *stubRuleRepo) DeleteRule(_ repositories.SQLExecutor, id int64) error {
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

type stubTableRepo struct {
	tables map[int64]*models.BilliardTable
}

func (s *stubTableRepo) CreateTable(_ repositories.SQLExecutor, table *models.BilliardTable) (int64, error) {
	id := int64(len(s.tables) + 1)
	table.ID = id
	if s.tables == nil {
		s.tables = map[int64]*models.BilliardTable{}
	}
	s.tables[id] = table
	return id, nil
}

func (s *stubTableRepo) GetTableByID(id int64) (*models.BilliardTable, error) {
	if t, ok := s.tables[id]; ok {
		return t, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *stubTableRepo) GetTableByIDForUpdate(_ repositories.SQLExecutor, id int64) (*models.BilliardTable, error) {
	return s.GetTableByID(id)
}

func (s *stubTableRepo) GetTables(status *int, categoryID *int64) ([]models.BilliardTable, error) {
	out := []models.BilliardTable{}
	for _, t := range s.tables {
		if status != nil && int(t.Status) != *status {
			continue
		}
		if categoryID != nil && t.CategoryID != *categoryID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubTableRepo) UpdateTable(_ repositories.SQLExecutor, table *models.BilliardTable) error {
	if _, ok := s.tables[table.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.tables[table.ID] = table
	return nil
}

func (s *stubTableRepo) UpdateTableStatus(_ repositories.SQLExecutor, id int64, status models.TableStatus) error {
	t, ok := s.tables[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.Status = status
	return nil
}

func (s *stubTableRepo) DeleteTable(_ repositories.SQLExecutor, id int64) error {
	if _, ok := s.tables[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tables, id)
	return nil
}

type stubReservationRepo struct {
	reservations map[int64]*models.Reservation
	nextID       int64
}

func (s *stubReservationRepo) put(reservation *models.Reservation) {
	if s.reservations == nil {
		s.reservations = map[int64]*models.Reservation{}
	}
	if reservation.ID == 0 {
		s.nextID++
		reservation.ID = s.nextID
	}
	s.reservations[reservation.ID] = reservation
}

func (s *stubReservationRepo) CreateReservation(_ repositories.SQLExecutor, reservation *models.Reservation) (int64, error) {
	s.put(reservation)
	return reservation.ID, nil
}

func (s *stubReservationRepo) GetReservationByID(id int64) (*models.Reservation, error) {
	if r, ok := s.reservations[id]; ok {
		return r, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *stubReservationRepo) GetReservations(filters models.ReservationFilters) ([]models.Reservation, int, error) {
	out := []models.Reservation{}
	for _, r := range s.reservations {
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (s *stubReservationRepo) UpdateReservation(_ repositories.SQLExecutor, reservation *models.Reservation) error {
	if _, ok := s.reservations[reservation.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.reservations[reservation.ID] = reservation
	return nil
}

func (s *stubReservationRepo) CountOverlapping(_ repositories.SQLExecutor, tableID int64, startTime, endTime time.Time, excludeReservationID *int64) (int, error) {
	count := 0
	for _, r := range s.reservations {
		if r.TableID != tableID {
			continue
		}
		if r.Status != models.ReservationStatusPending && r.Status != models.ReservationStatusConfirmed {
			continue
		}
		if excludeReservationID != nil && r.ID == *excludeReservationID {
			continue
		}
		if r.StartTime.Before(endTime) && startTime.Before(r.EndTime) {
			count++
		}
	}
	return count, nil
}

func (s *stubReservationRepo) GetCommittedForTableBetween(tableID int64, from, to time.Time) ([]models.Reservation, error) {
	out := []models.Reservation{}
	for _, r := range s.reservations {
		if r.TableID != tableID {
			continue
		}
		if r.Status != models.ReservationStatusPending && r.Status != models.ReservationStatusConfirmed {
			continue
		}
		if r.StartTime.Before(to) && from.Before(r.EndTime) {
			out = append(out, *r)
		}
	}
	return out, nil
}

type stubSessionRepo struct {
	sessions map[int64]*models.Session
	nextID   int64
}

func (s *stubSessionRepo) put(session *models.Session) {
	if s.sessions == nil {
		s.sessions = map[int64]*models.Session{}
	}
	if session.ID == 0 {
		s.nextID++
		session.ID = s.nextID
	}
	s.sessions[session.ID] = session
}

func (s *stubSessionRepo) CreateSession(_ repositories.SQLExecutor, session *models.Session) (int64, error) {
	s.put(session)
	return session.ID, nil
}

func (s *stubSessionRepo) GetSessionByID(id int64) (*models.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *stubSessionRepo) GetSessionByIDForUpdate(_ repositories.SQLExecutor, id int64) (*models.Session, error) {
	return s.GetSessionByID(id)
}

func (s *stubSessionRepo) GetSessions(filters models.SessionFilters) ([]models.Session, int, error) {
	out := []models.Session{}
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	return out, len(out), nil
}

func (s *stubSessionRepo) GetActiveSessionByTable(_ repositories.SQLExecutor, tableID int64) (*models.Session, error) {
	for _, sess := range s.sessions {
		if sess.TableID == tableID && sess.Status == models.SessionStatusActive {
			return sess, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *stubSessionRepo) CountActiveOverlapping(_ repositories.SQLExecutor, tableID int64, startTime, endTime time.Time) (int, error) {
	count := 0
	for _, sess := range s.sessions {
		if sess.TableID != tableID || sess.Status != models.SessionStatusActive {
			continue
		}
		if sess.StartTime.Before(endTime) && (sess.EndTime == nil || startTime.Before(*sess.EndTime)) {
			count++
		}
	}
	return count, nil
}

func (s *stubSessionRepo) GetActiveForTableBetween(tableID int64, from, to time.Time) ([]models.Session, error) {
	out := []models.Session{}
	for _, sess := range s.sessions {
		if sess.TableID != tableID || sess.Status != models.SessionStatusActive {
			continue
		}
		if sess.StartTime.Before(to) && (sess.EndTime == nil || from.Before(*sess.EndTime)) {
			out = append(out, *sess)
		}
	}
	return out, nil
}

func (s *stubSessionRepo) CloseSession(_ repositories.SQLExecutor, id int64, endTime time.Time, finalCost decimal.Decimal, status models.SessionStatus) error {
	sess, ok := s.sessions[id]
	if !ok {
		return repositories.ErrNotFound
	}
	sess.EndTime = &endTime
	sess.FinalCost = finalCost
	sess.Status = status
	return nil
}

type stubPenaltyRepo struct {
	penalties []models.Penalty
}

func (s *stubPenaltyRepo) CreatePenalty(_ repositories.SQLExecutor, penalty *models.Penalty) (int64, error) {
	penalty.ID = int64(len(s.penalties) + 1)
	s.penalties = append(s.penalties, *penalty)
	return penalty.ID, nil
}

func (s *stubPenaltyRepo) GetPenaltiesBySession(_ repositories.SQLExecutor, sessionID int64) ([]models.Penalty, error) {
	out := []models.Penalty{}
	for _, p := range s.penalties {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPenaltyRepo) SumPenaltiesBySession(_ repositories.SQLExecutor, sessionID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range s.penalties {
		if p.SessionID == sessionID {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

type stubPaymentRepo struct {
	payments []models.Payment
}

func (s *stubPaymentRepo) CreatePayment(_ repositories.SQLExecutor, payment *models.Payment) (int64, error) {
	payment.ID = int64(len(s.payments) + 1)
	payment.CreatedAt = time.Now()
	s.payments = append(s.payments, *payment)
	return payment.ID, nil
}

func (s *stubPaymentRepo) GetPaymentsBySession(sessionID int64) ([]models.Payment, error) {
	out := []models.Payment{}
	for _, p := range s.payments {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPaymentRepo) SumPaymentsBySession(_ repositories.SQLExecutor, sessionID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range s.payments {
		if p.SessionID == sessionID {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

type stubSettingRepo struct {
	settings map[string]*models.SystemSetting
}

func (s *stubSettingRepo) set(key, value string) {
	if s.settings == nil {
		s.settings = map[string]*models.SystemSetting{}
	}
	v := value
	s.settings[key] = &models.SystemSetting{
		ID:           int64(len(s.settings) + 1),
		SettingKey:   key,
		SettingValue: &v,
	}
}

func (s *stubSettingRepo) GetAllSettings() ([]models.SystemSetting, error) {
	out := []models.SystemSetting{}
	for _, setting := range s.settings {
		out = append(out, *setting)
	}
	return out, nil
}

func (s *stubSettingRepo) GetSettingByKey(key string) (*models.SystemSetting, error) {
	if setting, ok := s.settings[key]; ok {
		return setting, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *stubSettingRepo) UpsertSetting(_ repositories.SQLExecutor, setting *models.SystemSetting) error {
	if s.settings == nil {
		s.settings = map[string]*models.SystemSetting{}
	}
	s.settings[setting.SettingKey] = setting
	return nil
}

func (s *stubSettingRepo) DeleteSettingByKey(_ repositories.SQLExecutor, key string) error {
	if _, ok := s.settings[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.settings, key)
	return nil
}
