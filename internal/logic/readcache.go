package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	cachekeys "hldesk-api/internal/cache"
	"hldesk-api/internal/svc"
)

// cached serves v from svcCtx.ReadCache under key if present, otherwise
// calls compute, stores the result, and returns it. A nil ReadCache (no
// Redis configured) falls straight through to compute. Grounded on the
// teacher's internal/repo/dbrepo.go getCache/setCache pair, collapsed into
// one helper since every caller here does exactly get-or-compute-then-set.
func cached[T any](ctx context.Context, svcCtx *svc.ServiceContext, key string, compute func() (T, error)) (T, error) {
	if svcCtx.ReadCache == nil {
		return compute()
	}

	var out T
	if err := svcCtx.ReadCache.GetCtx(ctx, key, &out); err == nil {
		return out, nil
	} else if !svcCtx.ReadCache.IsNotFound(err) {
		logx.WithContext(ctx).Errorf("read cache get %s failed: %v", key, err)
	}

	out, err := compute()
	if err != nil {
		return out, err
	}
	if setErr := svcCtx.ReadCache.SetWithExpireCtx(ctx, key, out, cachekeys.ReadThroughTTL); setErr != nil {
		logx.WithContext(ctx).Errorf("read cache set %s failed: %v", key, setErr)
	}
	return out, nil
}
