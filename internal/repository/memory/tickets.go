package memory

import "context"

type ticketRepo struct {
	scope
}

func (r *ticketRepo) Get(ctx context.Context, studentID int64) (int, error) {
	st, release := r.acquire()
	defer release()

	return st.balances[studentID], nil
}

// Lock в памяти эквивалентен Get: эксклюзивность обеспечивает RunInTx
func (r *ticketRepo) Lock(ctx context.Context, studentID int64) (int, error) {
	st, release := r.acquire()
	defer release()

	if _, ok := st.balances[studentID]; !ok {
		st.balances[studentID] = 0
	}
	return st.balances[studentID], nil
}

func (r *ticketRepo) Increment(ctx context.Context, studentID int64, count int) (int, error) {
	st, release := r.acquire()
	defer release()

	st.balances[studentID] += count
	return st.balances[studentID], nil
}

func (r *ticketRepo) Decrement(ctx context.Context, studentID int64, count int) (int, bool, error) {
	st, release := r.acquire()
	defer release()

	current := st.balances[studentID]
	if current < count {
		return current, false, nil
	}
	st.balances[studentID] = current - count
	return st.balances[studentID], true, nil
}
