package authsvc

import "time"

func (ts *TokenSigner) SetClock(now func() time.Time) { ts.now = now }

func (ht *HTTPTransport) SetClock(now func() time.Time) { ht.now = now }
